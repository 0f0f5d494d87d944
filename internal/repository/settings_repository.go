package repository

import (
	"context"

	"github.com/yukikurage/todo-tracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository is a GORM implementation of SettingsRepository
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the value stored under key. "key" is a reserved word in MySQL,
// so conditions go through maps and get quoted by GORM.
func (r *GormSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var row models.AppConfig
	if err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"key": key}).
		First(&row).Error; err != nil {
		return "", err
	}
	return row.Value, nil
}

// GetMany returns the stored values for the given keys
func (r *GormSettingsRepository) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	var rows []models.AppConfig
	if err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"key": keys}).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// Set inserts or overwrites the value stored under key
func (r *GormSettingsRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.AppConfig{Key: key, Value: value}).Error
}
