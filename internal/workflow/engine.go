// Package workflow holds the task and workflow engine: the project catalog,
// the task state machine, boards, sprints and project administration.
//
// Components hold no authoritative state of their own. The store is the
// source of truth and every mutation re-reads what it validates against.
package workflow

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// Options configures the engine components. Zero values get defaults.
type Options struct {
	Log        *slog.Logger
	Retry      RetryPolicy
	CatalogTTL time.Duration
	Sink       ActivitySink
	Now        func() time.Time
	NewID      func() string
}

// env is the set of collaborators shared by every component.
type env struct {
	store store.Store
	log   *slog.Logger
	retry retrier
	sink  ActivitySink
	now   func() time.Time
	newID func() string
}

func newEnv(st store.Store, opts Options) env {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return env{
		store: st,
		log:   opts.Log,
		retry: retrier{policy: opts.Retry, log: opts.Log},
		sink:  opts.Sink,
		now:   opts.Now,
		newID: opts.NewID,
	}
}

// Engine bundles the components built over one store.
type Engine struct {
	Catalog  *Catalog
	Projects *Projects
	Tasks    *Tasks
	Boards   *Boards
	Sprints  *Sprints
}

func New(st store.Store, opts Options) *Engine {
	catalog := NewCatalog(st, opts)
	return &Engine{
		Catalog:  catalog,
		Projects: NewProjects(st, catalog, opts),
		Tasks:    NewTasks(st, catalog, opts),
		Boards:   NewBoards(st, catalog, opts),
		Sprints:  NewSprints(st, catalog, opts),
	}
}
