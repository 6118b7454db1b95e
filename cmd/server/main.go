package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/leon2m/arlmsv004-sub001/internal/auth"
	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/database"
	"github.com/leon2m/arlmsv004-sub001/internal/handlers"
	"github.com/leon2m/arlmsv004-sub001/internal/realtime"
	"github.com/leon2m/arlmsv004-sub001/internal/routes"
	"github.com/leon2m/arlmsv004-sub001/internal/scheduler"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
	"github.com/leon2m/arlmsv004-sub001/internal/store/gormstore"
	"github.com/leon2m/arlmsv004-sub001/internal/store/memstore"
	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "taskflow",
	Short:        "Task and workflow engine API",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is everything the serve command runs.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	store    store.Store
	engine   *workflow.Engine
	notifier *realtime.Notifier
	router   *gin.Engine
	cron     *scheduler.Scheduler
}

func openStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), nil
	case "database", "":
		db, err := database.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, log); err != nil {
			return nil, err
		}
		return gormstore.New(db, log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newApp(cfg config.Config, log *slog.Logger) (*app, error) {
	st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	hub := realtime.NewHub()
	notifier := realtime.NewNotifier(hub, log)
	engine := workflow.New(st, workflow.Options{
		Log: log,
		Retry: workflow.RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		},
		CatalogTTL: cfg.Catalog.CacheTTL,
		Sink:       notifier,
	})

	tokens := auth.NewManager(cfg.Auth)
	h := handlers.New(engine, st, tokens, hub, log, cfg.Auth)

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		engine:   engine,
		notifier: notifier,
		router:   routes.SetupRoutes(h, tokens, log),
	}
	if cfg.Scheduler.Enabled {
		a.cron = scheduler.New(cfg.Scheduler, engine.Catalog, engine.Sprints, log)
	}
	return a, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := config.NewLogger(cfg.LogLevel)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	return database.Migrate(db, log)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := config.NewLogger(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	a, err := newApp(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cron != nil {
		if err := a.cron.Start(ctx); err != nil {
			return err
		}
		defer a.cron.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", httpServer.Addr, "store", cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped unexpectedly", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server", "error", err)
	}
	a.notifier.Close()

	log.Info("server stopped")
	return nil
}
