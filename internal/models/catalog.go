package models

// StatusCategory is the coarse bucket a status belongs to, independent of its name.
type StatusCategory string

const (
	CategoryToDo       StatusCategory = "to-do"
	CategoryInProgress StatusCategory = "in-progress"
	CategoryDone       StatusCategory = "done"
	CategoryBlocked    StatusCategory = "blocked"
	CategoryReview     StatusCategory = "review"
)

// Valid reports whether c is one of the closed set of categories.
func (c StatusCategory) Valid() bool {
	switch c {
	case CategoryToDo, CategoryInProgress, CategoryDone, CategoryBlocked, CategoryReview:
		return true
	}
	return false
}

// TaskStatus is one state of a project's workflow
type TaskStatus struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	ProjectID string         `json:"projectId" gorm:"column:project_id;not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	Color     string         `json:"color"`
	Category  StatusCategory `json:"category" gorm:"not null"`
	Position  int            `json:"position"`
	IsDefault bool           `json:"isDefault" gorm:"column:is_default;default:false"`
}

// TableName specifies the table name for TaskStatus Model
func (TaskStatus) TableName() string {
	return "task_statuses"
}

// WorkflowTransition is a directed edge between two statuses of the same project.
type WorkflowTransition struct {
	ID           string `json:"id" gorm:"primaryKey"`
	ProjectID    string `json:"projectId" gorm:"column:project_id;not null;index"`
	FromStatusID string `json:"fromStatusId" gorm:"column:from_status_id;not null"`
	ToStatusID   string `json:"toStatusId" gorm:"column:to_status_id;not null"`
	Label        string `json:"label"`
}

// TableName specifies the table name for WorkflowTransition Model
func (WorkflowTransition) TableName() string {
	return "workflow_transitions"
}

// TaskPriority is a display/filter reference. An empty ProjectID makes it shared by every project.
type TaskPriority struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"projectId,omitempty" gorm:"column:project_id;index"`
	Name      string `json:"name" gorm:"not null"`
	Color     string `json:"color"`
	Position  int    `json:"position"`
}

// TableName specifies the table name for TaskPriority Model
func (TaskPriority) TableName() string {
	return "task_priorities"
}

// TaskType is a display/filter reference (story, bug, ...).
type TaskType struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ProjectID string `json:"projectId,omitempty" gorm:"column:project_id;index"`
	Name      string `json:"name" gorm:"not null"`
	Icon      string `json:"icon"`
}

// TableName specifies the table name for TaskType Model
func (TaskType) TableName() string {
	return "task_types"
}
