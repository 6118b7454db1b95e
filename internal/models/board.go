package models

import "time"

// Board is a visual arrangement of a project's statuses into columns.
type Board struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ProjectID string    `json:"projectId" gorm:"column:project_id;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	IsDefault bool      `json:"isDefault" gorm:"column:is_default;default:false"`
	Archived  bool      `json:"archived" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Board Model
func (Board) TableName() string {
	return "boards"
}

// BoardColumn binds one status to a board position. Limit is an advisory WIP cap.
type BoardColumn struct {
	ID       string `json:"id" gorm:"primaryKey"`
	BoardID  string `json:"boardId" gorm:"column:board_id;not null;index"`
	StatusID string `json:"statusId" gorm:"column:status_id;not null"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Limit    *int   `json:"limit,omitempty" gorm:"column:wip_limit"`
}

// TableName specifies the table name for BoardColumn Model
func (BoardColumn) TableName() string {
	return "board_columns"
}
