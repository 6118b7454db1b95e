package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HTTP      HTTP      `yaml:"http"`
	Store     Store     `yaml:"store"`
	Database  Database  `yaml:"database"`
	Auth      Auth      `yaml:"auth"`
	Catalog   Catalog   `yaml:"catalog"`
	Retry     Retry     `yaml:"retry"`
	Scheduler Scheduler `yaml:"scheduler"`
}

type HTTP struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8008"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Store selects the persistence backend: "database" or "memory".
type Store struct {
	Backend string `yaml:"backend" env:"STORE_BACKEND" env-default:"database"`
}

type Database struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DB_DSN" env-default:"tasks-management.db"`
	LogSQL bool   `yaml:"log_sql" env:"DB_LOG_SQL" env-default:"false"`
}

type Auth struct {
	JWTSecret        string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"development-insecure-secret-change-me"`
	Issuer           string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"task-workflow-api"`
	Audience         string        `yaml:"audience" env:"JWT_AUDIENCE" env-default:"task-workflow-clients"`
	TokenTTL         time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"24h"`
	DefaultCanManage bool          `yaml:"default_can_manage" env:"AUTH_DEFAULT_CAN_MANAGE" env-default:"true"`
}

type Catalog struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CATALOG_CACHE_TTL" env-default:"5m"`
}

type Retry struct {
	MaxAttempts     uint          `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	InitialInterval time.Duration `yaml:"initial_interval" env:"RETRY_INITIAL_INTERVAL" env-default:"100ms"`
	MaxInterval     time.Duration `yaml:"max_interval" env:"RETRY_MAX_INTERVAL" env-default:"2s"`
}

type Scheduler struct {
	Enabled    bool   `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	CachePurge string `yaml:"cache_purge" env:"SCHEDULER_CACHE_PURGE" env-default:"@every 1m"`
	SprintScan string `yaml:"sprint_scan" env:"SCHEDULER_SPRINT_SCAN" env-default:"@hourly"`
}

// Load reads configPath when it exists and falls back to the environment otherwise.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
		return cfg, cfg.validate()
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("read config %q: %w", configPath, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read env: %w", err)
		}
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "database", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Retry.MaxAttempts == 0 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	return nil
}

// NewLogger builds the process logger from a level name.
func NewLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
