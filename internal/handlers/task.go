package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/todo-tracker/internal/dto"
	apierrors "github.com/yukikurage/todo-tracker/internal/errors"
	"github.com/yukikurage/todo-tracker/internal/middleware"
	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/services"
	"github.com/yukikurage/todo-tracker/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *logrus.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// Home confirms the session and returns the list footer counts
func (h *TaskHandler) Home(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.Home")

	stats, err := h.taskService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"stats":         stats,
	})
}

// ListTasks returns the tasks of a view, newest first.
// Pagination applies only when page or limit is supplied.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.ListTasks")

	view, err := services.ParseTaskView(c.Query("view"))
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	input := services.ListTasksInput{View: view}
	if params, ok := utils.GetPaginationParams(c); ok {
		input.Pagination = &params
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, total, input.Pagination))
}

// Stats returns total, active and finished counts
func (h *TaskHandler) Stats(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.Stats")

	stats, err := h.taskService.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by LoadTask middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new pending task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.CreateTask")

	type CreateTaskRequest struct {
		Text string `json:"text"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), req.Text)
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	log.WithField("task_id", task.ID).Info("task created")
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// SaveTask replaces the editable state of a task with its alerts and dependencies
func (h *TaskHandler) SaveTask(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.SaveTask")

	type AlertRequest struct {
		Title string `json:"title"`
		DueAt string `json:"due_at"`
	}

	type SaveTaskRequest struct {
		Text          string            `json:"text"`
		Description   *string           `json:"description"`
		Status        models.TaskStatus `json:"status"`
		StartDate     *string           `json:"start_date"`
		DueDate       *string           `json:"due_date"`
		EndDate       *string           `json:"end_date"`
		EstimatedTime *string           `json:"estimated_time"`
		Alerts        []AlertRequest    `json:"alerts"`
		Dependencies  []string          `json:"dependencies"`
	}

	var req SaveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	alerts := make([]services.AlertInput, len(req.Alerts))
	for i, a := range req.Alerts {
		alerts[i] = services.AlertInput{Title: a.Title, DueAt: a.DueAt}
	}

	task, err := h.taskService.SaveTask(c.Request.Context(), c.Param("id"), services.SaveTaskInput{
		Text:          req.Text,
		Description:   req.Description,
		Status:        req.Status,
		StartDate:     req.StartDate,
		DueDate:       req.DueDate,
		EndDate:       req.EndDate,
		EstimatedTime: req.EstimatedTime,
		Alerts:        alerts,
		DependencyIDs: req.Dependencies,
	})
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ToggleTask flips the completed flag
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.ToggleTask")

	task, err := h.taskService.ToggleCompletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// SetStatus moves a task to another status
func (h *TaskHandler) SetStatus(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.SetStatus")

	type SetStatusRequest struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// SetDueDate sets or clears the due date. An empty or null value clears it.
func (h *TaskHandler) SetDueDate(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.SetDueDate")

	type SetDueDateRequest struct {
		DueDate *string `json:"due_date"`
	}

	var req SetDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	date := ""
	if req.DueDate != nil {
		date = *req.DueDate
	}

	task, err := h.taskService.SetDueDate(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task together with its alerts, comments and dependency edges
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.DeleteTask")

	id := c.Param("id")
	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		respondServiceError(c, log, err)
		return
	}

	log.WithField("task_id", id).Info("task deleted")
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// ClearFinished deletes every finished task
func (h *TaskHandler) ClearFinished(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.ClearFinished")

	deleted, err := h.taskService.ClearFinished(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	log.WithField("deleted", deleted).Info("finished tasks cleared")
	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
	})
}

// ListComments returns the comments of a task, oldest first
func (h *TaskHandler) ListComments(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.ListComments")

	comments, err := h.taskService.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments),
	})
}

// AddComment appends a comment to a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.TaskHandler.AddComment")

	type AddCommentRequest struct {
		Content string `json:"content"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.taskService.AddComment(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}
