package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddIndexes adds the indexes used by the list views. AutoMigrate already
// covers the single-column indexes declared on the models.
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// View filtering and default ordering
		{"tasks", "idx_tasks_status_created_at", "status, created_at"},
		{"tasks", "idx_tasks_due_date", "due_date"},

		// Alerts are listed per task in creation order
		{"task_alerts", "idx_task_alerts_task_id_created_at", "task_id, created_at"},

		// Comments are listed per task in creation order
		{"task_comments", "idx_task_comments_task_id_created_at", "task_id, created_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Infof("Created index on %s(%s)", idx.table, idx.columns)
	}

	return nil
}
