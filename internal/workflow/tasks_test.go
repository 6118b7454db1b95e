package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

func TestCreateTask_DefaultsAndMoveThroughWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	todo := f.status(t, p.ID, "To Do")
	inProgress := f.status(t, p.ID, "In Progress")
	done := f.status(t, p.ID, "Done")

	task := f.task(t, p.ID, "  Write docs  ")
	require.Equal(t, todo.ID, task.StatusID)
	require.Equal(t, "Write docs", task.Title)

	_, err := f.engine.Tasks.Move(ctx, task.ID, done.ID)
	require.Error(t, err)
	require.True(t, IsInvalidTransition(err))
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, []string{inProgress.ID}, ite.Allowed)

	stored, err := f.engine.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, todo.ID, stored.StatusID)

	moved, err := f.engine.Tasks.Move(ctx, task.ID, inProgress.ID)
	require.NoError(t, err)
	require.Equal(t, inProgress.ID, moved.StatusID)
	require.Nil(t, moved.CompletedAt)

	moved, err = f.engine.Tasks.Move(ctx, task.ID, done.ID)
	require.NoError(t, err)
	require.Equal(t, done.ID, moved.StatusID)
	require.NotNil(t, moved.CompletedAt)

	reopened, err := f.engine.Tasks.Move(ctx, task.ID, inProgress.ID)
	require.NoError(t, err)
	require.Nil(t, reopened.CompletedAt)

	history, err := f.engine.Tasks.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, "created", history[0].Field)
	require.Equal(t, "status", history[1].Field)
	require.Equal(t, todo.ID, history[1].OldValue)
	require.Equal(t, inProgress.ID, history[1].NewValue)
}

func TestCreateTask_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	other := f.project(t, "QY", models.KindClassic)
	foreign := f.status(t, other.ID, "To Do")

	cases := []struct {
		name string
		in   CreateTaskInput
	}{
		{"blank title", CreateTaskInput{ProjectID: p.ID, Title: "   "}},
		{"missing project", CreateTaskInput{Title: "x"}},
		{"unknown project", CreateTaskInput{ProjectID: "nope", Title: "x"}},
		{"foreign status", CreateTaskInput{ProjectID: p.ID, Title: "x", StatusID: foreign.ID}},
		{"unknown priority", CreateTaskInput{ProjectID: p.ID, Title: "x", PriorityID: "nope"}},
		{"unknown type", CreateTaskInput{ProjectID: p.ID, Title: "x", TypeID: "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Tasks.Create(ctx, tc.in)
			require.True(t, IsValidation(err), "got %v", err)
		})
	}

	_, err := f.engine.Projects.Archive(ctx, other.ID)
	require.NoError(t, err)
	_, err = f.engine.Tasks.Create(ctx, CreateTaskInput{ProjectID: other.ID, Title: "x"})
	require.True(t, IsValidation(err))
}

func TestCreateTask_PositionsAreLastInStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)

	a := f.task(t, p.ID, "a")
	b := f.task(t, p.ID, "b")
	require.Equal(t, 0, a.Position)
	require.Equal(t, 1, b.Position)

	inProgress := f.status(t, p.ID, "In Progress")
	moved, err := f.engine.Tasks.Move(ctx, b.ID, inProgress.ID)
	require.NoError(t, err)
	require.Equal(t, 0, moved.Position)
}

func TestMove_SameStatusIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")
	before := len(f.sink.fields())

	again, err := f.engine.Tasks.Move(ctx, task.ID, task.StatusID)
	require.NoError(t, err)
	require.Equal(t, task.UpdatedAt, again.UpdatedAt)
	require.Len(t, f.sink.fields(), before)
}

func TestMove_ForeignStatusAndUnknownTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	other := f.project(t, "QY", models.KindClassic)
	task := f.task(t, p.ID, "a")

	foreign := f.status(t, other.ID, "In Progress")
	_, err := f.engine.Tasks.Move(ctx, task.ID, foreign.ID)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, task.StatusID, ite.From)
	require.Equal(t, foreign.ID, ite.To)
	require.Equal(t, []string{f.status(t, p.ID, "In Progress").ID}, ite.Allowed)

	_, err = f.engine.Tasks.Move(ctx, task.ID, "no-such-status")
	require.True(t, IsInvalidTransition(err), "got %v", err)

	stored, err := f.engine.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusID, stored.StatusID)

	_, err = f.engine.Tasks.Move(ctx, "missing", f.status(t, p.ID, "In Progress").ID)
	require.True(t, IsNotFound(err))
}

func TestMove_SeesTransitionAddedAfterCaching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")
	done := f.status(t, p.ID, "Done")

	// warm the cache, then add the edge behind its back
	_, err := f.engine.Catalog.Snapshot(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.PutTransition(ctx, models.WorkflowTransition{
		ID: "shortcut", ProjectID: p.ID, FromStatusID: task.StatusID, ToStatusID: done.ID,
	}))

	moved, err := f.engine.Tasks.Move(ctx, task.ID, done.ID)
	require.NoError(t, err)
	require.Equal(t, done.ID, moved.StatusID)
}

func TestCreateAndUpdate_SeeReferencesAddedAfterCaching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)

	// warm the cache, then add a priority and a type behind its back
	_, err := f.engine.Catalog.Snapshot(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.PutPriority(ctx, models.TaskPriority{ID: "urgent", ProjectID: p.ID, Name: "Urgent", Position: 9}))
	require.NoError(t, f.store.PutType(ctx, models.TaskType{ID: "spike", ProjectID: p.ID, Name: "Spike"}))

	task, err := f.engine.Tasks.Create(ctx, CreateTaskInput{ProjectID: p.ID, Title: "a", PriorityID: "urgent"})
	require.NoError(t, err)
	require.Equal(t, "urgent", task.PriorityID)

	typeID := "spike"
	updated, err := f.engine.Tasks.Update(ctx, task.ID, TaskPatch{TypeID: &typeID})
	require.NoError(t, err)
	require.Equal(t, "spike", updated.TypeID)

	unknown := "nope"
	_, err = f.engine.Tasks.Update(ctx, task.ID, TaskPatch{PriorityID: &unknown})
	require.True(t, IsValidation(err), "got %v", err)
}

func TestTransitions_ListsLegalTargets(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "PX", models.KindScrum)
	task := f.task(t, p.ID, "a")
	inProgress := f.status(t, p.ID, "In Progress")
	_, err := f.engine.Tasks.Move(context.Background(), task.ID, inProgress.ID)
	require.NoError(t, err)

	targets, err := f.engine.Tasks.Transitions(context.Background(), task.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(targets))
	for _, s := range targets {
		names = append(names, s.Name)
	}
	require.ElementsMatch(t, []string{"To Do", "Review", "Blocked"}, names)
}

func TestUpdate_RecordsOneActivityPerChangedField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")

	title := "renamed"
	same := task.Description
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	labels := []string{"api", " api ", "", "db"}
	updated, err := f.engine.Tasks.Update(ctx, task.ID, TaskPatch{
		Title:       &title,
		Description: &same,
		DueDate:     &due,
		Labels:      &labels,
		Metadata:    map[string]string{"team": "core"},
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, []string{"api", "db"}, updated.Labels)
	require.Equal(t, "core", updated.Metadata["team"])
	require.Equal(t, task.StatusID, updated.StatusID)

	history, err := f.engine.Tasks.History(ctx, task.ID)
	require.NoError(t, err)
	fields := make([]string, 0, len(history))
	for _, h := range history[1:] {
		fields = append(fields, h.Field)
	}
	require.ElementsMatch(t, []string{"title", "due_date", "labels", "metadata"}, fields)

	cleared, err := f.engine.Tasks.Update(ctx, task.ID, TaskPatch{
		ClearDueDate: true,
		Metadata:     map[string]string{"team": ""},
	})
	require.NoError(t, err)
	require.Nil(t, cleared.DueDate)
	require.NotContains(t, cleared.Metadata, "team")
}

func TestUpdate_DueTimeChangeWithinSameDayIsStored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")

	morning := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	_, err := f.engine.Tasks.Update(ctx, task.ID, TaskPatch{DueDate: &morning})
	require.NoError(t, err)

	evening := time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC)
	updated, err := f.engine.Tasks.Update(ctx, task.ID, TaskPatch{DueDate: &evening})
	require.NoError(t, err)
	require.True(t, evening.Equal(*updated.DueDate))

	stored, err := f.engine.Tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, evening.Equal(*stored.DueDate), "stored %v", stored.DueDate)

	history, err := f.engine.Tasks.History(ctx, task.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	require.Equal(t, "due_date", last.Field)
	require.Equal(t, "2024-01-05T09:00:00Z", last.OldValue)
	require.Equal(t, "2024-01-05T17:30:00Z", last.NewValue)

	// same instant again is not a change
	before := len(history)
	_, err = f.engine.Tasks.Update(ctx, task.ID, TaskPatch{DueDate: &evening})
	require.NoError(t, err)
	history, err = f.engine.Tasks.History(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, before)
}

func TestUpdate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")

	_, err := f.engine.Tasks.Update(ctx, task.ID, TaskPatch{})
	require.True(t, IsValidation(err))

	blank := "  "
	_, err = f.engine.Tasks.Update(ctx, task.ID, TaskPatch{Title: &blank})
	require.True(t, IsValidation(err))

	bogus := "bogus"
	_, err = f.engine.Tasks.Update(ctx, task.ID, TaskPatch{PriorityID: &bogus})
	require.True(t, IsValidation(err))

	title := "x"
	_, err = f.engine.Tasks.Update(ctx, "missing", TaskPatch{Title: &title})
	require.True(t, IsNotFound(err))
}

func TestDelete_Modes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindScrum)
	task := f.task(t, p.ID, "a")
	sp, err := f.engine.Sprints.Create(ctx, SprintInput{ProjectID: p.ID, Name: "S1"})
	require.NoError(t, err)
	_, err = f.engine.Sprints.AssignTask(ctx, task.ID, sp.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.Tasks.Delete(ctx, task.ID, DeleteStrict))
	_, err = f.engine.Tasks.Get(ctx, task.ID)
	require.True(t, IsNotFound(err))
	members, err := f.store.ListSprintTasks(ctx, sp.ID)
	require.NoError(t, err)
	require.Empty(t, members)

	err = f.engine.Tasks.Delete(ctx, task.ID, DeleteStrict)
	require.True(t, IsNotFound(err))
	require.NoError(t, f.engine.Tasks.Delete(ctx, task.ID, DeleteIdempotent))
}

func TestActivity_CarriesActor(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	ctx := WithActor(context.Background(), "u-1")

	task, err := f.engine.Tasks.Create(ctx, CreateTaskInput{ProjectID: p.ID, Title: "a"})
	require.NoError(t, err)
	require.Equal(t, "u-1", task.ReporterID)

	history, err := f.engine.Tasks.History(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "u-1", history[0].ActorID)
}

func TestRetry_RecoversFromTransientFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")

	flaky := &flakyStore{Store: f.store, failures: 2}
	tasks := NewTasks(flaky, f.engine.Catalog, testOptions(NopSink{}, f.clock))

	got, err := tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, task.ID, got.ID)
	require.Equal(t, 3, flaky.calls)
}

func TestRetry_ExhaustionIsTransportError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.project(t, "PX", models.KindClassic)
	task := f.task(t, p.ID, "a")

	flaky := &flakyStore{Store: f.store, failures: 10}
	tasks := NewTasks(flaky, f.engine.Catalog, testOptions(NopSink{}, f.clock))

	_, err := tasks.Get(ctx, task.ID)
	require.True(t, IsTransport(err), "got %v", err)
	require.ErrorIs(t, err, errFlaky)
	require.Equal(t, 3, flaky.calls)
}

func TestRetry_NotFoundIsNotRetried(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyStore{Store: f.store}
	tasks := NewTasks(flaky, f.engine.Catalog, testOptions(NopSink{}, f.clock))

	_, err := tasks.Get(context.Background(), "missing")
	require.True(t, IsNotFound(err))
	require.Equal(t, 1, flaky.calls)
}
