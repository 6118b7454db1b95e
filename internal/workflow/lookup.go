package workflow

import (
	"context"
	"errors"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// fetch runs a retried store read and turns store.ErrNotFound into *NotFoundError.
func fetch[T any](ctx context.Context, e *env, entity, id string, get func(context.Context, string) (T, error)) (T, error) {
	v, err := call(ctx, e.retry, "get "+entity, func(ctx context.Context) (T, error) {
		return get(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return v, notFound(entity, id)
	}
	return v, err
}

func (e *env) project(ctx context.Context, id string) (models.Project, error) {
	return fetch(ctx, e, "project", id, e.store.GetProject)
}

// activeProject is used by operations that create things: an unknown or
// archived project is bad input rather than a missing resource.
func (e *env) activeProject(ctx context.Context, id string) (models.Project, error) {
	if id == "" {
		return models.Project{}, invalid("projectId", "is required")
	}
	p, err := e.project(ctx, id)
	if IsNotFound(err) {
		return models.Project{}, invalid("projectId", "refers to an unknown project")
	}
	if err != nil {
		return models.Project{}, err
	}
	if p.Archived {
		return models.Project{}, invalid("projectId", "refers to an archived project")
	}
	return p, nil
}

func (e *env) task(ctx context.Context, id string) (models.Task, error) {
	return fetch(ctx, e, "task", id, e.store.GetTask)
}

func (e *env) board(ctx context.Context, id string) (models.Board, error) {
	return fetch(ctx, e, "board", id, e.store.GetBoard)
}

func (e *env) sprint(ctx context.Context, id string) (models.Sprint, error) {
	return fetch(ctx, e, "sprint", id, e.store.GetSprint)
}

func (e *env) listTasks(ctx context.Context, q store.TaskQuery) ([]models.Task, error) {
	return call(ctx, e.retry, "list tasks", func(ctx context.Context) ([]models.Task, error) {
		return e.store.ListTasks(ctx, q)
	})
}

// nextPosition returns the position that places a task last in a status.
func (e *env) nextPosition(ctx context.Context, projectID, statusID string) (int, error) {
	tasks, err := e.listTasks(ctx, store.TaskQuery{ProjectID: projectID, StatusID: statusID})
	if err != nil {
		return 0, err
	}
	next := 0
	for _, t := range tasks {
		if t.Position >= next {
			next = t.Position + 1
		}
	}
	return next, nil
}
