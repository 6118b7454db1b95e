package models

import "time"

// SprintStatus represents the lifecycle state of a sprint
type SprintStatus string

const (
	SprintPlanning  SprintStatus = "planning"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

// Sprint is a time-boxed grouping of tasks within a project.
type Sprint struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	ProjectID    string       `json:"projectId" gorm:"column:project_id;not null;index"`
	Name         string       `json:"name" gorm:"not null"`
	Goal         string       `json:"goal"`
	Status       SprintStatus `json:"status" gorm:"not null;default:'planning'"`
	StartDate    *time.Time   `json:"startDate,omitempty" gorm:"column:start_date"`
	EndDate      *time.Time   `json:"endDate,omitempty" gorm:"column:end_date"`
	CompleteDate *time.Time   `json:"completeDate,omitempty" gorm:"column:complete_date"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// TableName specifies the table name for Sprint Model
func (Sprint) TableName() string {
	return "sprints"
}

// SprintTask is the membership of a task in a sprint. TaskID is the primary key,
// so a task can never be in two sprints at once.
type SprintTask struct {
	TaskID    string    `json:"taskId" gorm:"primaryKey;column:task_id"`
	SprintID  string    `json:"sprintId" gorm:"column:sprint_id;not null;index"`
	ProjectID string    `json:"projectId" gorm:"column:project_id;not null"`
	AddedAt   time.Time `json:"addedAt" gorm:"column:added_at"`
}

// TableName specifies the table name for SprintTask Model
func (SprintTask) TableName() string {
	return "sprint_tasks"
}
