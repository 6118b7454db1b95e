package workflow

import (
	"context"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

// ActivitySink receives task activity after a mutation has been stored.
// Publish must not block the caller for long; delivery is best effort.
type ActivitySink interface {
	Publish(ctx context.Context, a models.TaskActivity)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, models.TaskActivity) {}

type actorKey struct{}

// WithActor attaches the id of the user performing an operation.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id set by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// record persists and publishes one activity entry. Failures are logged and
// never undo the mutation that produced the entry.
func (e *env) record(ctx context.Context, task models.Task, field, oldValue, newValue string) {
	a := models.TaskActivity{
		ID:        e.newID(),
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		ActorID:   ActorFrom(ctx),
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: e.now(),
	}
	if err := exec(ctx, e.retry, "append activity", func(ctx context.Context) error {
		return e.store.AppendActivity(ctx, a)
	}); err != nil {
		e.log.Warn("activity not persisted", "task_id", task.ID, "field", field, "error", err)
	}
	e.sink.Publish(ctx, a)
}
