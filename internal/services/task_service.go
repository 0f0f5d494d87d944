package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/repository"
	"github.com/yukikurage/todo-tracker/internal/utils"
	"gorm.io/gorm"
)

// TaskView is a named, derived subset of tasks.
type TaskView string

const (
	TaskViewAll      TaskView = "all"
	TaskViewActive   TaskView = "active"
	TaskViewFinished TaskView = "finished"
)

// ParseTaskView maps a query value to a view. Empty means all.
func ParseTaskView(value string) (TaskView, error) {
	switch TaskView(value) {
	case "", TaskViewAll:
		return TaskViewAll, nil
	case TaskViewActive:
		return TaskViewActive, nil
	case TaskViewFinished:
		return TaskViewFinished, nil
	}
	return "", newValidationError("view", "must be one of all, active, finished")
}

// Statuses returns the statuses included in the view; nil means every status.
func (v TaskView) Statuses() []models.TaskStatus {
	switch v {
	case TaskViewActive:
		return models.ActiveStatuses
	case TaskViewFinished:
		return []models.TaskStatus{models.TaskStatusFinished}
	}
	return nil
}

// TaskService enforces the task lifecycle rules
type TaskService struct {
	taskRepo    repository.TaskRepository
	commentRepo repository.CommentRepository
	dispatcher  Dispatcher
	now         func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, commentRepo repository.CommentRepository, dispatcher Dispatcher) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		commentRepo: commentRepo,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	View       TaskView
	Pagination *utils.PaginationParams
}

// AlertInput is one alert submitted with a save
type AlertInput struct {
	Title string
	DueAt string
}

// SaveTaskInput represents the full editable state of a task
type SaveTaskInput struct {
	Text          string
	Description   *string
	Status        models.TaskStatus
	StartDate     *string
	DueDate       *string
	EndDate       *string
	EstimatedTime *string
	Alerts        []AlertInput
	DependencyIDs []string
}

// TaskStats summarises the task list
type TaskStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Finished int64 `json:"finished"`
}

// ListTasks returns the tasks of a view, newest first
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		Statuses:   input.View.Statuses(),
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, storeError("list tasks", err)
	}
	return tasks, total, nil
}

// GetTask returns a task with its alerts, dependencies and comments
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.findTask(ctx, id, "Alerts", "Dependencies", "Comments")
}

// CreateTask creates a pending task
func (s *TaskService) CreateTask(ctx context.Context, text string) (*models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newValidationError("text", "text is required")
	}

	task := &models.Task{
		Text:      text,
		Completed: false,
		Status:    models.TaskStatusPending,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, storeError("create task", err)
	}

	s.dispatch(EventTodoCreated, task, nil)
	return task, nil
}

// ToggleCompletion flips the completed flag and derives the status from it.
// end_date is filled on completion when absent and never cleared.
func (s *TaskService) ToggleCompletion(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *task

	task.Completed = !task.Completed
	if task.Completed {
		task.Status = models.TaskStatusFinished
	} else {
		task.Status = models.TaskStatusPending
	}
	s.applyEndDate(task)

	return s.update(ctx, task, &previous)
}

// SetDueDate sets or clears the due date. A pending task with a due date
// becomes planned; no other status is touched.
func (s *TaskService) SetDueDate(ctx context.Context, id, date string) (*models.Task, error) {
	date = strings.TrimSpace(date)
	if date != "" && !utils.IsDate(date) {
		return nil, newValidationError("due_date", "must be a YYYY-MM-DD date")
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *task

	if date == "" {
		task.DueDate = nil
	} else {
		task.DueDate = &date
		if task.Status == models.TaskStatusPending {
			task.Status = models.TaskStatusPlanned
		}
	}

	return s.update(ctx, task, &previous)
}

// SetStatus moves a task to any status. Transitions are unrestricted.
func (s *TaskService) SetStatus(ctx context.Context, id string, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, newValidationError("status", "unknown status")
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *task

	task.Status = status
	task.Completed = task.IsFinished()
	s.applyEndDate(task)

	return s.update(ctx, task, &previous)
}

// SaveTask replaces the editable fields of a task together with its alert
// and dependency sets. Nothing is written when validation fails, and the
// row update and both resyncs commit or roll back together.
func (s *TaskService) SaveTask(ctx context.Context, id string, input SaveTaskInput) (*models.Task, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, newValidationError("text", "text is required")
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, newValidationError("status", "unknown status")
	}

	startDate := utils.OptionalString(input.StartDate)
	dueDate := utils.OptionalString(input.DueDate)
	endDate := utils.OptionalString(input.EndDate)
	for field, value := range map[string]*string{"start_date": startDate, "due_date": dueDate, "end_date": endDate} {
		if value != nil && !utils.IsDate(*value) {
			return nil, newValidationError(field, "must be a YYYY-MM-DD date")
		}
	}

	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *task

	status := input.Status
	if status == "" {
		status = task.Status
	}

	// A finished task keeps the end date it already has before falling back to today.
	if status == models.TaskStatusFinished && endDate == nil {
		endDate = task.EndDate
	}

	task.Text = text
	task.Description = utils.OptionalString(input.Description)
	task.Status = status
	task.Completed = status == models.TaskStatusFinished
	task.StartDate = startDate
	task.DueDate = dueDate
	task.EndDate = endDate
	task.EstimatedTime = utils.OptionalString(input.EstimatedTime)
	s.applyEndDate(task)

	alerts := make([]models.TaskAlert, 0, len(input.Alerts))
	for _, a := range input.Alerts {
		title := strings.TrimSpace(a.Title)
		if title == "" {
			continue
		}
		alerts = append(alerts, models.TaskAlert{
			Title: title,
			DueAt: utils.ParseAlertTime(a.DueAt),
		})
	}

	dependencyIDs := make([]string, 0, len(input.DependencyIDs))
	for _, depID := range input.DependencyIDs {
		if depID = strings.TrimSpace(depID); depID != "" {
			dependencyIDs = append(dependencyIDs, depID)
		}
	}
	dependencyIDs = utils.UniqueStrings(dependencyIDs)

	if err := s.taskRepo.SaveWithRelations(ctx, task, alerts, dependencyIDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storeError("save task", err)
	}

	saved, err := s.findTask(ctx, id, "Alerts", "Dependencies")
	if err != nil {
		return nil, err
	}

	s.dispatch(EventTodoUpdated, saved, &previous)
	return saved, nil
}

// AddComment appends a comment to a task
func (s *TaskService) AddComment(ctx context.Context, id, content string) (*models.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newValidationError("content", "content is required")
	}

	if _, err := s.findTask(ctx, id); err != nil {
		return nil, err
	}

	comment := &models.TaskComment{
		TaskID:  id,
		Content: content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, storeError("add comment", err)
	}
	return comment, nil
}

// ListComments returns the comments of a task, oldest first
func (s *TaskService) ListComments(ctx context.Context, id string) ([]models.TaskComment, error) {
	if _, err := s.findTask(ctx, id); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTask(ctx, id)
	if err != nil {
		return nil, storeError("list comments", err)
	}
	return comments, nil
}

// DeleteTask removes a task. Its alerts, comments and dependency edges are
// removed by the repository.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.findTask(ctx, id); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return storeError("delete task", err)
	}
	return nil
}

// ClearFinished deletes every finished task and returns how many were removed
func (s *TaskService) ClearFinished(ctx context.Context) (int64, error) {
	deleted, err := s.taskRepo.DeleteByStatus(ctx, models.TaskStatusFinished)
	if err != nil {
		return 0, storeError("clear finished tasks", err)
	}
	return deleted, nil
}

// Stats counts all, active and finished tasks. Everything that is not
// finished counts as active here, matching the list footer.
func (s *TaskService) Stats(ctx context.Context) (*TaskStats, error) {
	counts, err := s.taskRepo.CountByStatus(ctx)
	if err != nil {
		return nil, storeError("count tasks", err)
	}

	stats := &TaskStats{}
	for status, count := range counts {
		stats.Total += count
		if status == models.TaskStatusFinished {
			stats.Finished += count
		}
	}
	stats.Active = stats.Total - stats.Finished
	return stats, nil
}

func (s *TaskService) update(ctx context.Context, task, previous *models.Task) (*models.Task, error) {
	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storeError("update task", err)
	}

	s.dispatch(EventTodoUpdated, task, previous)
	return task, nil
}

// applyEndDate fills an absent end date with today once the task is finished.
func (s *TaskService) applyEndDate(task *models.Task) {
	if task.IsFinished() && task.EndDate == nil {
		today := utils.Today(s.now())
		task.EndDate = &today
	}
}

func (s *TaskService) dispatch(event WebhookEvent, task, previous *models.Task) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(event, task, previous)
}

// findTask loads a task, mapping a missing row to ErrTaskNotFound
func (s *TaskService) findTask(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storeError("find task", err)
	}
	return task, nil
}
