package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskAlert struct {
	ID        string     `gorm:"type:varchar(36);primarykey" json:"id"`
	TaskID    string     `gorm:"type:varchar(36);not null;index" json:"task_id"`
	Title     string     `gorm:"not null" json:"title"`
	DueAt     *time.Time `json:"due_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *TaskAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
