package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

type countingPurger struct{ calls int }

func (p *countingPurger) PurgeExpired() int {
	p.calls++
	return 1
}

type stubSprints struct {
	sprints []models.Sprint
	err     error
	at      time.Time
}

func (s *stubSprints) Overdue(_ context.Context, at time.Time) ([]models.Sprint, error) {
	s.at = at
	return s.sprints, s.err
}

func TestScanSprints_LogsOverdue(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	end := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	sprints := &stubSprints{sprints: []models.Sprint{{ID: "s1", ProjectID: "p1", Name: "S1", EndDate: &end}}}

	s := New(config.Scheduler{}, &countingPurger{}, sprints, log)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.ScanSprints()
	require.Equal(t, now, sprints.at)
	require.Contains(t, buf.String(), "sprint overdue")
	require.Contains(t, buf.String(), "sprint_id=s1")

	buf.Reset()
	sprints.err = errors.New("boom")
	s.ScanSprints()
	require.Contains(t, buf.String(), "sprint scan failed")
}

func TestPurgeCache(t *testing.T) {
	p := &countingPurger{}
	New(config.Scheduler{}, p, &stubSprints{}, nil).PurgeCache()
	require.Equal(t, 1, p.calls)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := New(config.Scheduler{CachePurge: "every now and then", SprintScan: "@hourly"}, &countingPurger{}, &stubSprints{}, nil)
	require.Error(t, s.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	s := New(config.Scheduler{CachePurge: "@every 1m", SprintScan: "@hourly"}, &countingPurger{}, &stubSprints{}, nil)
	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()
}
