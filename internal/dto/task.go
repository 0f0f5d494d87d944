package dto

import (
	"time"

	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/utils"
)

// AlertDTO represents a task alert in API responses
type AlertDTO struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	DueAt     *time.Time `json:"due_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	Completed     bool              `json:"completed"`
	Status        models.TaskStatus `json:"status"`
	Description   *string           `json:"description"`
	StartDate     *string           `json:"start_date"`
	DueDate       *string           `json:"due_date"`
	EndDate       *string           `json:"end_date"`
	EstimatedTime *string           `json:"estimated_time"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Alerts        []AlertDTO        `json:"alerts,omitempty"`
	Dependencies  []string          `json:"dependencies,omitempty"`
	Comments      []CommentDTO      `json:"comments,omitempty"`
}

// TaskListResponse represents a list of tasks, paginated when requested
type TaskListResponse struct {
	Tasks      []TaskDTO                 `json:"tasks"`
	Total      int64                     `json:"total"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// Conversion functions

// ToAlertDTO converts a TaskAlert model to AlertDTO
func ToAlertDTO(alert models.TaskAlert) AlertDTO {
	return AlertDTO{
		ID:        alert.ID,
		Title:     alert.Title,
		DueAt:     alert.DueAt,
		CreatedAt: alert.CreatedAt,
	}
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	items := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = ToCommentDTO(comment)
	}
	return items
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Text:          task.Text,
		Completed:     task.Completed,
		Status:        task.Status,
		Description:   task.Description,
		StartDate:     task.StartDate,
		DueDate:       task.DueDate,
		EndDate:       task.EndDate,
		EstimatedTime: task.EstimatedTime,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	// Include relations if preloaded
	if len(task.Alerts) > 0 {
		dto.Alerts = make([]AlertDTO, len(task.Alerts))
		for i, alert := range task.Alerts {
			dto.Alerts[i] = ToAlertDTO(alert)
		}
	}
	if len(task.Dependencies) > 0 {
		dto.Dependencies = make([]string, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			dto.Dependencies[i] = dep.DependsOnID
		}
	}
	if len(task.Comments) > 0 {
		dto.Comments = ToCommentDTOs(task.Comments)
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, total int64, pagination *utils.PaginationParams) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	response := TaskListResponse{
		Tasks: items,
		Total: total,
	}
	if pagination != nil {
		response.Pagination = &utils.PaginationResponse{
			Page:  pagination.Page,
			Limit: pagination.Limit,
			Total: total,
		}
	}
	return response
}
