package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pendiente"
	TaskStatusPlanned    TaskStatus = "planificado"
	TaskStatusInProgress TaskStatus = "en_curso"
	TaskStatusDiscarded  TaskStatus = "desestimado"
	TaskStatusFinished   TaskStatus = "finalizado"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusPlanned, TaskStatusInProgress, TaskStatusDiscarded, TaskStatusFinished:
		return true
	}
	return false
}

// ActiveStatuses are the statuses shown in the "active" view.
var ActiveStatuses = []TaskStatus{TaskStatusPending, TaskStatusPlanned, TaskStatusInProgress}

// Task is a tracked to-do item. Its dates are calendar dates stored as
// YYYY-MM-DD strings.
type Task struct {
	ID            string     `gorm:"type:varchar(36);primarykey" json:"id"`
	Text          string     `gorm:"not null" json:"text"`
	Completed     bool       `gorm:"not null;default:false" json:"completed"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'pendiente'" json:"status"`
	Description   *string    `gorm:"type:text" json:"description"`
	StartDate     *string    `gorm:"type:varchar(10)" json:"start_date"`
	DueDate       *string    `gorm:"type:varchar(10)" json:"due_date"`
	EndDate       *string    `gorm:"type:varchar(10)" json:"end_date"`
	EstimatedTime *string    `gorm:"type:varchar(100)" json:"estimated_time"`
	CreatedAt     time.Time  `gorm:"<-:create" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relations
	Alerts       []TaskAlert      `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"dependencies,omitempty"`
	Comments     []TaskComment    `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsFinished reports whether the task is in the finalizado status.
func (t *Task) IsFinished() bool {
	return t.Status == TaskStatusFinished
}
