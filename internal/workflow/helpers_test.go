package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
	"github.com/leon2m/arlmsv004-sub001/internal/store/memstore"
	"github.com/leon2m/arlmsv004-sub001/internal/testutil"
)

// tickingClock advances one second per reading so records created in a
// test have distinct, ordered timestamps.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.TaskActivity
}

func (s *recordingSink) Publish(_ context.Context, a models.TaskActivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, a)
}

func (s *recordingSink) fields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Field)
	}
	return out
}

type fixture struct {
	engine *Engine
	store  *memstore.Store
	sink   *recordingSink
	clock  *tickingClock
}

func testOptions(sink ActivitySink, clock *tickingClock) Options {
	return Options{
		Log:   testutil.DiscardLogger(),
		Retry: RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
		Sink:  sink,
		Now:   clock.Now,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	sink := &recordingSink{}
	clock := &tickingClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	return &fixture{
		engine: New(st, testOptions(sink, clock)),
		store:  st,
		sink:   sink,
		clock:  clock,
	}
}

func (f *fixture) project(t *testing.T, key string, kind models.ProjectKind) models.Project {
	t.Helper()
	p, err := f.engine.Projects.Create(context.Background(), ProjectInput{Name: "Project " + key, Key: key, Kind: kind})
	require.NoError(t, err)
	return p
}

func (f *fixture) status(t *testing.T, projectID, name string) models.TaskStatus {
	t.Helper()
	statuses, err := f.engine.Catalog.GetStatuses(context.Background(), projectID)
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("status %q not found in project %s", name, projectID)
	return models.TaskStatus{}
}

func (f *fixture) task(t *testing.T, projectID, title string) models.Task {
	t.Helper()
	task, err := f.engine.Tasks.Create(context.Background(), CreateTaskInput{ProjectID: projectID, Title: title})
	require.NoError(t, err)
	return task
}

func (f *fixture) defaultBoard(t *testing.T, projectID string) models.Board {
	t.Helper()
	boards, err := f.engine.Boards.ListBoards(context.Background(), projectID)
	require.NoError(t, err)
	for _, b := range boards {
		if b.IsDefault {
			return b
		}
	}
	t.Fatalf("project %s has no default board", projectID)
	return models.Board{}
}

// flakyStore fails the first n calls of every wrapped method with errFlaky.
type flakyStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	calls    int
}

var errFlaky = errTransport("connection reset")

type errTransport string

func (e errTransport) Error() string { return string(e) }

func (s *flakyStore) fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errFlaky
	}
	return nil
}

func (s *flakyStore) GetTask(ctx context.Context, id string) (models.Task, error) {
	if err := s.fail(); err != nil {
		return models.Task{}, err
	}
	return s.Store.GetTask(ctx, id)
}

func (s *flakyStore) PutTask(ctx context.Context, t models.Task) error {
	if err := s.fail(); err != nil {
		return err
	}
	return s.Store.PutTask(ctx, t)
}
