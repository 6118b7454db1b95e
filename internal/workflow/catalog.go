package workflow

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leon2m/arlmsv004-sub001/internal/cache"
	"github.com/leon2m/arlmsv004-sub001/internal/filter"
	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// Snapshot is an immutable view of one project's reference data.
type Snapshot struct {
	ProjectID   string
	Statuses    []models.TaskStatus // ordered by position
	Transitions []models.WorkflowTransition
	Priorities  []models.TaskPriority
	Types       []models.TaskType

	statusByID map[string]models.TaskStatus
	edges      map[string]map[string]struct{}
}

func newSnapshot(projectID string, statuses []models.TaskStatus, transitions []models.WorkflowTransition,
	priorities []models.TaskPriority, types []models.TaskType) *Snapshot {
	s := &Snapshot{
		ProjectID:   projectID,
		Statuses:    statuses,
		Transitions: transitions,
		Priorities:  priorities,
		Types:       types,
		statusByID:  make(map[string]models.TaskStatus, len(statuses)),
		edges:       make(map[string]map[string]struct{}),
	}
	for _, st := range statuses {
		s.statusByID[st.ID] = st
	}
	for _, t := range transitions {
		if s.edges[t.FromStatusID] == nil {
			s.edges[t.FromStatusID] = make(map[string]struct{})
		}
		s.edges[t.FromStatusID][t.ToStatusID] = struct{}{}
	}
	return s
}

func (s *Snapshot) Status(id string) (models.TaskStatus, bool) {
	st, ok := s.statusByID[id]
	return st, ok
}

// Default returns the status new tasks start in.
func (s *Snapshot) Default() (models.TaskStatus, bool) {
	for _, st := range s.Statuses {
		if st.IsDefault {
			return st, true
		}
	}
	return models.TaskStatus{}, false
}

// Allows reports whether the workflow has an edge from -> to.
func (s *Snapshot) Allows(from, to string) bool {
	_, ok := s.edges[from][to]
	return ok
}

// Targets lists the statuses reachable in one step from the given status, in position order.
func (s *Snapshot) Targets(from string) []models.TaskStatus {
	var out []models.TaskStatus
	for _, st := range s.Statuses {
		if s.Allows(from, st.ID) {
			out = append(out, st)
		}
	}
	return out
}

func (s *Snapshot) HasPriority(id string) bool {
	for _, p := range s.Priorities {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Snapshot) HasType(id string) bool {
	for _, t := range s.Types {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Ranks exposes catalog positions for sorting views.
func (s *Snapshot) Ranks() filter.Ranks {
	r := filter.Ranks{
		Status:   make(map[string]int, len(s.Statuses)),
		Priority: make(map[string]int, len(s.Priorities)),
	}
	for _, st := range s.Statuses {
		r.Status[st.ID] = st.Position
	}
	for _, p := range s.Priorities {
		r.Priority[p.ID] = p.Position
	}
	return r
}

// Catalog serves statuses, transitions, priorities and types per project.
// Snapshots are cached for the configured TTL; administrative writes
// invalidate the affected project.
type Catalog struct {
	env
	ttl   time.Duration
	cache *cache.TTLCache[string, *Snapshot]
}

func NewCatalog(st store.Store, opts Options) *Catalog {
	ttl := opts.CatalogTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Catalog{
		env:   newEnv(st, opts),
		ttl:   ttl,
		cache: cache.NewTTLCache[string, *Snapshot](cache.Options{ConcurrencySafe: true}),
	}
}

// Snapshot returns the cached catalog of a project, loading it on a miss.
// Unknown projects fail with *NotFoundError.
func (c *Catalog) Snapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	return c.cache.GetOrLoad(projectID, c.ttl, func() (*Snapshot, error) {
		return c.load(ctx, projectID)
	})
}

// Refresh reloads a project's catalog from the store and caches the result.
func (c *Catalog) Refresh(ctx context.Context, projectID string) (*Snapshot, error) {
	snap, err := c.load(ctx, projectID)
	if err != nil {
		c.cache.Delete(projectID)
		return nil, err
	}
	c.cache.Set(projectID, snap, c.ttl)
	return snap, nil
}

func (c *Catalog) Invalidate(projectID string) {
	c.cache.Delete(projectID)
}

// PurgeExpired drops expired snapshots and reports how many were removed.
func (c *Catalog) PurgeExpired() int {
	return c.cache.PurgeExpired()
}

func (c *Catalog) load(ctx context.Context, projectID string) (*Snapshot, error) {
	if _, err := call(ctx, c.retry, "get project", func(ctx context.Context) (models.Project, error) {
		return c.store.GetProject(ctx, projectID)
	}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("project", projectID)
		}
		return nil, err
	}

	var (
		statuses    []models.TaskStatus
		transitions []models.WorkflowTransition
		priorities  []models.TaskPriority
		types       []models.TaskType
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		statuses, err = call(gctx, c.retry, "list statuses", func(ctx context.Context) ([]models.TaskStatus, error) {
			return c.store.ListStatuses(ctx, projectID)
		})
		return err
	})
	g.Go(func() (err error) {
		transitions, err = call(gctx, c.retry, "list transitions", func(ctx context.Context) ([]models.WorkflowTransition, error) {
			return c.store.ListTransitions(ctx, projectID)
		})
		return err
	})
	g.Go(func() (err error) {
		priorities, err = call(gctx, c.retry, "list priorities", func(ctx context.Context) ([]models.TaskPriority, error) {
			return c.store.ListPriorities(ctx, projectID)
		})
		return err
	})
	g.Go(func() (err error) {
		types, err = call(gctx, c.retry, "list types", func(ctx context.Context) ([]models.TaskType, error) {
			return c.store.ListTypes(ctx, projectID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Debug("catalog loaded", "project_id", projectID, "statuses", len(statuses), "transitions", len(transitions))
	return newSnapshot(projectID, statuses, transitions, priorities, types), nil
}

// GetStatuses returns the project's statuses ordered by position.
func (c *Catalog) GetStatuses(ctx context.Context, projectID string) ([]models.TaskStatus, error) {
	snap, err := c.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return append([]models.TaskStatus(nil), snap.Statuses...), nil
}

func (c *Catalog) GetTransitions(ctx context.Context, projectID string) ([]models.WorkflowTransition, error) {
	snap, err := c.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return append([]models.WorkflowTransition(nil), snap.Transitions...), nil
}

func (c *Catalog) GetPriorities(ctx context.Context, projectID string) ([]models.TaskPriority, error) {
	snap, err := c.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return append([]models.TaskPriority(nil), snap.Priorities...), nil
}

func (c *Catalog) GetTypes(ctx context.Context, projectID string) ([]models.TaskType, error) {
	snap, err := c.Snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return append([]models.TaskType(nil), snap.Types...), nil
}

// ValidateStatusBelongs reports whether statusID is one of the project's statuses.
// A cache miss on the status triggers one refresh, so statuses added by
// another process are seen without waiting for the TTL.
func (c *Catalog) ValidateStatusBelongs(ctx context.Context, projectID, statusID string) (bool, error) {
	snap, err := c.Snapshot(ctx, projectID)
	if err != nil {
		return false, err
	}
	if _, ok := snap.Status(statusID); ok {
		return true, nil
	}
	snap, err = c.Refresh(ctx, projectID)
	if err != nil {
		return false, err
	}
	_, ok := snap.Status(statusID)
	return ok, nil
}

func (c *Catalog) Ranks(ctx context.Context, projectID string) (filter.Ranks, error) {
	snap, err := c.Snapshot(ctx, projectID)
	if err != nil {
		return filter.Ranks{}, err
	}
	return snap.Ranks(), nil
}
