package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnv(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8008", cfg.HTTP.Address)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	require.Equal(t, uint(3), cfg.Retry.MaxAttempts)
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log_level: DEBUG\nhttp:\n  address: \":9000\"\ncatalog:\n  cache_ttl: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "DEBUG", cfg.LogLevel)
	require.Equal(t, ":9000", cfg.HTTP.Address)
	require.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	_, err := Load("")
	require.Error(t, err)
}
