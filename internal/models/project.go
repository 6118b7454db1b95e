package models

import "time"

// ProjectKind is the declared flavour of a project.
type ProjectKind string

const (
	KindClassic ProjectKind = "classic"
	KindScrum   ProjectKind = "scrum"
	KindKanban  ProjectKind = "kanban"
)

// Valid reports whether k is one of the known project kinds.
func (k ProjectKind) Valid() bool {
	switch k {
	case KindClassic, KindScrum, KindKanban:
		return true
	}
	return false
}

// Project groups statuses, transitions, boards, sprints and tasks.
type Project struct {
	ID          string      `json:"id" gorm:"primaryKey"`
	Name        string      `json:"name" gorm:"not null"`
	Key         string      `json:"key" gorm:"column:project_key;uniqueIndex;not null"`
	Description string      `json:"description"`
	Kind        ProjectKind `json:"kind" gorm:"not null;default:'classic'"`
	Archived    bool        `json:"archived" gorm:"default:false"`
	OwnerID     string      `json:"ownerId" gorm:"column:owner_id"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TableName specifies the table name for Project Model
func (Project) TableName() string {
	return "projects"
}
