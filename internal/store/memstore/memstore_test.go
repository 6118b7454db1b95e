package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

func TestProjects_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.PutProject(ctx, models.Project{ID: "p1", Key: "WEB", Name: "Web"}))
	require.ErrorIs(t, s.PutProject(ctx, models.Project{ID: "p2", Key: "WEB", Name: "Other"}), store.ErrDuplicate)

	// rewriting the same project keeps its key
	require.NoError(t, s.PutProject(ctx, models.Project{ID: "p1", Key: "WEB", Name: "Renamed"}))
	p, err := s.FindProjectByKey(ctx, "WEB")
	require.NoError(t, err)
	require.Equal(t, "Renamed", p.Name)

	_, err = s.GetProject(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTasks_CopiedAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	require.NoError(t, s.PutTask(ctx, models.Task{ID: "b", ProjectID: "p", StatusID: "todo", Position: 1, CreatedAt: now}))
	require.NoError(t, s.PutTask(ctx, models.Task{ID: "a", ProjectID: "p", StatusID: "todo", Position: 0, CreatedAt: now, Labels: []string{"x"}}))
	require.NoError(t, s.PutTask(ctx, models.Task{ID: "c", ProjectID: "p", StatusID: "done", Archived: true, CreatedAt: now}))

	got, err := s.ListTasks(ctx, store.TaskQuery{ProjectID: "p"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)

	got[0].Labels[0] = "mutated"
	again, err := s.GetTask(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, again.Labels)

	all, err := s.ListTasks(ctx, store.TaskQuery{ProjectID: "p", IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, s.DeleteTask(ctx, "a"))
	require.ErrorIs(t, s.DeleteTask(ctx, "a"), store.ErrNotFound)
}

func TestPriorities_IncludeShared(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.PutPriority(ctx, models.TaskPriority{ID: "shared", Name: "High", Position: 1}))
	require.NoError(t, s.PutPriority(ctx, models.TaskPriority{ID: "own", ProjectID: "p1", Name: "Blocker", Position: 0}))
	require.NoError(t, s.PutPriority(ctx, models.TaskPriority{ID: "other", ProjectID: "p2", Name: "Low", Position: 2}))

	got, err := s.ListPriorities(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "own", got[0].ID)
	require.Equal(t, "shared", got[1].ID)
}

func TestSprintMembership(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.PutTaskSprint(ctx, models.SprintTask{TaskID: "t2", SprintID: "s1", AddedAt: t0.Add(time.Minute)}))
	require.NoError(t, s.PutTaskSprint(ctx, models.SprintTask{TaskID: "t1", SprintID: "s1", AddedAt: t0}))

	members, err := s.ListSprintTasks(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "t1", members[0].TaskID)

	// a task moves rather than joining a second sprint
	require.NoError(t, s.PutTaskSprint(ctx, models.SprintTask{TaskID: "t1", SprintID: "s2", AddedAt: t0}))
	members, err = s.ListSprintTasks(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, s.DeleteTaskSprint(ctx, "t1"))
	_, err = s.GetTaskSprint(ctx, "t1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.PutUser(ctx, models.User{ID: "2", Username: "zoe"}))
	require.NoError(t, s.PutUser(ctx, models.User{ID: "1", Username: "admin"}))
	require.ErrorIs(t, s.PutUser(ctx, models.User{ID: "3", Username: "admin"}), store.ErrDuplicate)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "admin", users[0].Username)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().GetTask(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}
