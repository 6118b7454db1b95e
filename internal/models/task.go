package models

import (
	"time"
)

// Task represents a unit of work moving through a project's workflow.
type Task struct {
	ID             string            `json:"id" gorm:"primaryKey"`
	ProjectID      string            `json:"projectId" gorm:"column:project_id;not null;index:idx_tasks_project_status"`
	StatusID       string            `json:"statusId" gorm:"column:status_id;not null;index:idx_tasks_project_status"`
	PriorityID     string            `json:"priorityId,omitempty" gorm:"column:priority_id"`
	TypeID         string            `json:"typeId,omitempty" gorm:"column:type_id"`
	AssigneeID     string            `json:"assigneeId,omitempty" gorm:"column:assignee_id;index"`
	ReporterID     string            `json:"reporterId,omitempty" gorm:"column:reporter_id"`
	Title          string            `json:"title" gorm:"not null"`
	Description    string            `json:"description"`
	DueDate        *time.Time        `json:"dueDate,omitempty" gorm:"column:due_date"`
	EstimatedHours *float64          `json:"estimatedHours,omitempty" gorm:"column:estimated_hours"`
	LoggedHours    float64           `json:"loggedHours" gorm:"column:logged_hours;default:0"`
	Labels         []string          `json:"labels" gorm:"serializer:json"`
	Position       int               `json:"position" gorm:"default:0"`
	Metadata       map[string]string `json:"metadata,omitempty" gorm:"serializer:json"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty" gorm:"column:completed_at"`
	Archived       bool              `json:"archived" gorm:"default:false"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// Clone returns a copy that shares no slices, maps or pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.EstimatedHours != nil {
		h := *t.EstimatedHours
		out.EstimatedHours = &h
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		out.CompletedAt = &c
	}
	if t.Labels != nil {
		out.Labels = append([]string(nil), t.Labels...)
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// TaskActivity is a single history entry for a task field change.
type TaskActivity struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	TaskID    string    `json:"taskId" gorm:"column:task_id;not null;index"`
	ProjectID string    `json:"projectId" gorm:"column:project_id;not null"`
	ActorID   string    `json:"actorId,omitempty" gorm:"column:actor_id"`
	Field     string    `json:"field" gorm:"not null"`
	OldValue  string    `json:"oldValue" gorm:"column:old_value"`
	NewValue  string    `json:"newValue" gorm:"column:new_value"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for TaskActivity Model
func (TaskActivity) TableName() string {
	return "task_activities"
}
