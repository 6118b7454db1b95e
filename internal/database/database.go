package database

import (
	"fmt"
	"log/slog"

	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. sqlite uses glebarez/sqlite,
// a pure Go driver, so no CGO is needed.
func Open(cfg config.Database, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := logger.Silent
	if cfg.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Driver != "postgres" {
		// sqlite allows a single writer; keep one connection so :memory: databases are shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connected", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates every table the engine uses.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.TaskStatus{},
		&models.WorkflowTransition{},
		&models.TaskPriority{},
		&models.TaskType{},
		&models.Task{},
		&models.TaskActivity{},
		&models.Board{},
		&models.BoardColumn{},
		&models.Sprint{},
		&models.SprintTask{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	log.Info("database migrated")
	return nil
}
