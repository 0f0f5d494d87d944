package models

// TaskDependency is a directed "task depends on another task" edge.
type TaskDependency struct {
	TaskID      string `gorm:"type:varchar(36);primarykey" json:"task_id"`
	DependsOnID string `gorm:"type:varchar(36);primarykey;index" json:"depends_on_id"`
}
