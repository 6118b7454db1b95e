package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/testutil"
	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

func testConfig() config.Config {
	return config.Config{
		Store:     config.Store{Backend: "memory"},
		Auth:      config.Auth{JWTSecret: "secret", Issuer: "test", Audience: "test", TokenTTL: time.Hour},
		Retry:     config.Retry{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
		Scheduler: config.Scheduler{Enabled: true, CachePurge: "@every 1m", SprintScan: "@hourly"},
	}
}

func TestNewApp_MemoryBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := newApp(testConfig(), testutil.DiscardLogger())
	require.NoError(t, err)
	require.NotNil(t, a.cron)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	p, err := a.engine.Projects.Create(context.Background(), workflow.ProjectInput{Key: "DEMO", Name: "Demo", Kind: models.KindKanban})
	require.NoError(t, err)
	statuses, err := a.engine.Catalog.GetStatuses(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
}

func TestNewApp_DatabaseBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "database"
	cfg.Database = config.Database{Driver: "sqlite", DSN: ":memory:"}
	cfg.Scheduler.Enabled = false

	a, err := newApp(cfg, testutil.DiscardLogger())
	require.NoError(t, err)
	require.Nil(t, a.cron)
	require.NoError(t, a.store.Ping(context.Background()))
}

func TestNewApp_UnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "redis"
	_, err := newApp(cfg, testutil.DiscardLogger())
	require.ErrorContains(t, err, "unknown store backend")
}
