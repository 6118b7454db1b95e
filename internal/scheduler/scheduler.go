// Package scheduler runs the engine's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

// CachePurger drops expired cache entries.
type CachePurger interface {
	PurgeExpired() int
}

// OverdueFinder lists active sprints past their end date.
type OverdueFinder interface {
	Overdue(ctx context.Context, at time.Time) ([]models.Sprint, error)
}

type Scheduler struct {
	cfg     config.Scheduler
	catalog CachePurger
	sprints OverdueFinder
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	cron   *rcron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg config.Scheduler, catalog CachePurger, sprints OverdueFinder, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cfg:     cfg,
		catalog: catalog,
		sprints: sprints,
		log:     log.With("component", "scheduler"),
		now:     time.Now,
	}
}

// Start registers the jobs and starts the cron loop. Jobs stop when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	c := rcron.New()
	if _, err := c.AddFunc(s.cfg.CachePurge, s.PurgeCache); err != nil {
		return fmt.Errorf("schedule cache purge %q: %w", s.cfg.CachePurge, err)
	}
	if _, err := c.AddFunc(s.cfg.SprintScan, s.ScanSprints); err != nil {
		return fmt.Errorf("schedule sprint scan %q: %w", s.cfg.SprintScan, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = c
	c.Start()
	s.log.Info("scheduler started", "cache_purge", s.cfg.CachePurge, "sprint_scan", s.cfg.SprintScan)
	return nil
}

// Stop waits up to five seconds for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	cancel()
	select {
	case <-c.Stop().Done():
	case <-time.After(5 * time.Second):
		s.log.Warn("stop timeout waiting for running jobs")
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// PurgeCache drops expired catalog snapshots.
func (s *Scheduler) PurgeCache() {
	if n := s.catalog.PurgeExpired(); n > 0 {
		s.log.Debug("catalog cache purged", "entries", n)
	}
}

// ScanSprints reports active sprints whose end date has passed.
func (s *Scheduler) ScanSprints() {
	overdue, err := s.sprints.Overdue(s.jobContext(), s.now())
	if err != nil {
		s.log.Error("sprint scan failed", "error", err)
		return
	}
	for _, sp := range overdue {
		s.log.Warn("sprint overdue",
			"sprint_id", sp.ID,
			"project_id", sp.ProjectID,
			"name", sp.Name,
			"end_date", sp.EndDate,
		)
	}
}
