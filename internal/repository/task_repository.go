package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/todo-tracker/internal/database"
	"github.com/yukikurage/todo-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUpdateTask is returned when the task row update fails inside a save transaction.
	ErrUpdateTask = errors.New("task repository: update task failed")
	// ErrSyncAlerts is returned when rewriting the alert set fails inside a save transaction.
	ErrSyncAlerts = errors.New("task repository: sync alerts failed")
	// ErrSyncDependencies is returned when rewriting the dependency set fails inside a save transaction.
	ErrSyncDependencies = errors.New("task repository: sync dependencies failed")
)

// taskColumns are the columns written on update. created_at is immutable.
var taskColumns = []string{
	"UpdatedAt",
	"Text",
	"Completed",
	"Status",
	"Description",
	"StartDate",
	"DueDate",
	"EndDate",
	"EstimatedTime",
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	// Alerts and comments are always returned in creation order
	for _, p := range preload {
		switch p {
		case "Alerts", "Comments":
			query = query.Preload(p, func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at ASC")
			})
		default:
			query = query.Preload(p)
		}
	}

	if err := query.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and optional pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.StatusIn(filter.Statuses))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC")
	if filter.Pagination != nil {
		listQuery = listQuery.Scopes(database.Paginate(*filter.Pagination))
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update writes the mutable columns of a task row. A row that no longer
// exists yields gorm.ErrRecordNotFound.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Select(taskColumns).
		Omit(clause.Associations).
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveWithRelations updates the task row, then rewrites its alerts and
// dependency edges. Any failure rolls the whole save back.
func (r *GormTaskRepository) SaveWithRelations(ctx context.Context, task *models.Task, alerts []models.TaskAlert, dependsOnIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(task).Select(taskColumns).Omit(clause.Associations).Updates(task)
		if result.Error != nil {
			return fmt.Errorf("%w: %v", ErrUpdateTask, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAlert{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrSyncAlerts, err)
		}
		if len(alerts) > 0 {
			// A batch insert stamps every row with one time; spread them to keep submission order.
			base := time.Now()
			for i := range alerts {
				alerts[i].TaskID = task.ID
				alerts[i].CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
			}
			if err := tx.Create(&alerts).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrSyncAlerts, err)
			}
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskDependency{}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrSyncDependencies, err)
		}
		if len(dependsOnIDs) > 0 {
			edges := make([]models.TaskDependency, len(dependsOnIDs))
			for i, dependsOnID := range dependsOnIDs {
				edges[i] = models.TaskDependency{
					TaskID:      task.ID,
					DependsOnID: dependsOnID,
				}
			}
			if err := tx.Create(&edges).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrSyncDependencies, err)
			}
		}

		return nil
	})
}

// Delete removes a task and everything attached to it
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteDependents(tx, []string{id}); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteByStatus removes every task in the given status in one batch
func (r *GormTaskRepository) DeleteByStatus(ctx context.Context, status models.TaskStatus) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Task{}).Where("status = ?", status).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := deleteDependents(tx, ids); err != nil {
			return err
		}

		result := tx.Where("id IN ?", ids).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// CountByStatus returns the number of tasks per status
func (r *GormTaskRepository) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// deleteDependents removes alerts, comments and dependency edges of the given
// tasks. Edges pointing at the tasks from elsewhere are removed too.
func deleteDependents(tx *gorm.DB, taskIDs []string) error {
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAlert{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
		return err
	}
	return tx.Where("task_id IN ? OR depends_on_id IN ?", taskIDs, taskIDs).
		Delete(&models.TaskDependency{}).Error
}
