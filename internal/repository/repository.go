package repository

import (
	"context"

	"github.com/yukikurage/todo-tracker/internal/models"
	"github.com/yukikurage/todo-tracker/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and optional pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update writes the mutable columns of a task row
	Update(ctx context.Context, task *models.Task) error

	// SaveWithRelations updates the task row and replaces its alerts and
	// dependency edges within a single transaction
	SaveWithRelations(ctx context.Context, task *models.Task, alerts []models.TaskAlert, dependsOnIDs []string) error

	// Delete removes a task together with its alerts, comments and every
	// dependency edge touching it
	Delete(ctx context.Context, id string) error

	// DeleteByStatus removes every task in the given status and returns how many were removed
	DeleteByStatus(ctx context.Context, status models.TaskStatus) (int64, error)

	// CountByStatus returns the number of tasks per status
	CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Statuses   []models.TaskStatus
	Pagination *utils.PaginationParams
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	// Create appends a comment
	Create(ctx context.Context, comment *models.TaskComment) error

	// ListByTask lists the comments of a task, oldest first
	ListByTask(ctx context.Context, taskID string) ([]models.TaskComment, error)
}

// SettingsRepository defines the interface for key/value configuration rows
type SettingsRepository interface {
	// Get returns the value stored under key, or gorm.ErrRecordNotFound
	Get(ctx context.Context, key string) (string, error)

	// GetMany returns the stored values for the given keys; missing keys are absent from the map
	GetMany(ctx context.Context, keys []string) (map[string]string, error)

	// Set inserts or overwrites the value stored under key
	Set(ctx context.Context, key, value string) error
}
