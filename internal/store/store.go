// Package store defines the persistence boundary of the workflow engine.
//
// Implementations are selected at construction time: gormstore talks to a
// SQL database, memstore keeps everything in process memory. Every call may
// block and honours context cancellation.
package store

import (
	"context"
	"errors"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

// TaskQuery narrows ListTasks. Empty fields are not applied.
type TaskQuery struct {
	ProjectID       string
	StatusID        string
	IncludeArchived bool
}

// Store is the CRUD surface of every persisted entity.
type Store interface {
	Ping(ctx context.Context) error

	GetProject(ctx context.Context, id string) (models.Project, error)
	FindProjectByKey(ctx context.Context, key string) (models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	PutProject(ctx context.Context, p models.Project) error

	ListStatuses(ctx context.Context, projectID string) ([]models.TaskStatus, error)
	PutStatus(ctx context.Context, s models.TaskStatus) error
	ListTransitions(ctx context.Context, projectID string) ([]models.WorkflowTransition, error)
	PutTransition(ctx context.Context, t models.WorkflowTransition) error
	// ListPriorities returns project scoped priorities plus the shared ones.
	ListPriorities(ctx context.Context, projectID string) ([]models.TaskPriority, error)
	PutPriority(ctx context.Context, p models.TaskPriority) error
	// ListTypes returns project scoped types plus the shared ones.
	ListTypes(ctx context.Context, projectID string) ([]models.TaskType, error)
	PutType(ctx context.Context, t models.TaskType) error

	GetTask(ctx context.Context, id string) (models.Task, error)
	// ListTasks returns tasks ordered by position, then creation time.
	ListTasks(ctx context.Context, q TaskQuery) ([]models.Task, error)
	PutTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, id string) error

	GetBoard(ctx context.Context, id string) (models.Board, error)
	ListBoards(ctx context.Context, projectID string) ([]models.Board, error)
	PutBoard(ctx context.Context, b models.Board) error
	// ListColumns returns the columns of a board ordered by position.
	ListColumns(ctx context.Context, boardID string) ([]models.BoardColumn, error)
	PutColumn(ctx context.Context, c models.BoardColumn) error

	GetSprint(ctx context.Context, id string) (models.Sprint, error)
	ListSprints(ctx context.Context, projectID string) ([]models.Sprint, error)
	PutSprint(ctx context.Context, s models.Sprint) error

	// GetTaskSprint returns the membership of a task, or ErrNotFound.
	GetTaskSprint(ctx context.Context, taskID string) (models.SprintTask, error)
	// PutTaskSprint replaces any membership the task already had.
	PutTaskSprint(ctx context.Context, m models.SprintTask) error
	// DeleteTaskSprint is a no-op when the task has no membership.
	DeleteTaskSprint(ctx context.Context, taskID string) error
	ListSprintTasks(ctx context.Context, sprintID string) ([]models.SprintTask, error)

	AppendActivity(ctx context.Context, a models.TaskActivity) error
	ListActivity(ctx context.Context, taskID string) ([]models.TaskActivity, error)

	GetUserByName(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	PutUser(ctx context.Context, u models.User) error
}
