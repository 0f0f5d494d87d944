package models

import "time"

// AppConfig is a key/value row editable from the settings surface.
type AppConfig struct {
	Key       string    `gorm:"type:varchar(100);primarykey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AppConfig) TableName() string {
	return "app_config"
}
