// Package gormstore implements store.Store on top of gorm. It is the backend
// used in production, against sqlite or postgres.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"

	"gorm.io/gorm"
)

// Store wraps a gorm connection.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// New returns a Store over an already migrated connection.
func New(db *gorm.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

var _ store.Store = (*Store)(nil)

// translate maps driver errors onto the store sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return store.ErrDuplicate
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Projects

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return p, translate("get project", err)
}

func (s *Store) FindProjectByKey(ctx context.Context, key string) (models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).Where("project_key = ?", key).First(&p).Error
	return p, translate("find project by key", err)
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, translate("list projects", err)
}

func (s *Store) PutProject(ctx context.Context, p models.Project) error {
	return translate("put project", s.db.WithContext(ctx).Save(&p).Error)
}

// Catalog

func (s *Store) ListStatuses(ctx context.Context, projectID string) ([]models.TaskStatus, error) {
	var out []models.TaskStatus
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position asc").
		Find(&out).Error
	return out, translate("list statuses", err)
}

func (s *Store) PutStatus(ctx context.Context, st models.TaskStatus) error {
	return translate("put status", s.db.WithContext(ctx).Save(&st).Error)
}

func (s *Store) ListTransitions(ctx context.Context, projectID string) ([]models.WorkflowTransition, error) {
	var out []models.WorkflowTransition
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id asc").
		Find(&out).Error
	return out, translate("list transitions", err)
}

func (s *Store) PutTransition(ctx context.Context, t models.WorkflowTransition) error {
	return translate("put transition", s.db.WithContext(ctx).Save(&t).Error)
}

func (s *Store) ListPriorities(ctx context.Context, projectID string) ([]models.TaskPriority, error) {
	var out []models.TaskPriority
	err := s.db.WithContext(ctx).
		Where("project_id = ? OR project_id = ''", projectID).
		Order("position asc").
		Find(&out).Error
	return out, translate("list priorities", err)
}

func (s *Store) PutPriority(ctx context.Context, p models.TaskPriority) error {
	return translate("put priority", s.db.WithContext(ctx).Save(&p).Error)
}

func (s *Store) ListTypes(ctx context.Context, projectID string) ([]models.TaskType, error) {
	var out []models.TaskType
	err := s.db.WithContext(ctx).
		Where("project_id = ? OR project_id = ''", projectID).
		Order("name asc").
		Find(&out).Error
	return out, translate("list types", err)
}

func (s *Store) PutType(ctx context.Context, t models.TaskType) error {
	return translate("put type", s.db.WithContext(ctx).Save(&t).Error)
}

// Tasks

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	return t, translate("get task", err)
}

func (s *Store) ListTasks(ctx context.Context, q store.TaskQuery) ([]models.Task, error) {
	query := s.db.WithContext(ctx).Model(&models.Task{})
	if q.ProjectID != "" {
		query = query.Where("project_id = ?", q.ProjectID)
	}
	if q.StatusID != "" {
		query = query.Where("status_id = ?", q.StatusID)
	}
	if !q.IncludeArchived {
		query = query.Where("archived = ?", false)
	}

	var out []models.Task
	err := query.Order("position asc, created_at asc, id asc").Find(&out).Error
	return out, translate("list tasks", err)
}

func (s *Store) PutTask(ctx context.Context, t models.Task) error {
	return translate("put task", s.db.WithContext(ctx).Save(&t).Error)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return translate("delete task", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Boards

func (s *Store) GetBoard(ctx context.Context, id string) (models.Board, error) {
	var b models.Board
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	return b, translate("get board", err)
}

func (s *Store) ListBoards(ctx context.Context, projectID string) ([]models.Board, error) {
	var out []models.Board
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&out).Error
	return out, translate("list boards", err)
}

func (s *Store) PutBoard(ctx context.Context, b models.Board) error {
	return translate("put board", s.db.WithContext(ctx).Save(&b).Error)
}

func (s *Store) ListColumns(ctx context.Context, boardID string) ([]models.BoardColumn, error) {
	var out []models.BoardColumn
	err := s.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position asc").
		Find(&out).Error
	return out, translate("list columns", err)
}

func (s *Store) PutColumn(ctx context.Context, c models.BoardColumn) error {
	return translate("put column", s.db.WithContext(ctx).Save(&c).Error)
}

// Sprints

func (s *Store) GetSprint(ctx context.Context, id string) (models.Sprint, error) {
	var sp models.Sprint
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&sp).Error
	return sp, translate("get sprint", err)
}

func (s *Store) ListSprints(ctx context.Context, projectID string) ([]models.Sprint, error) {
	var out []models.Sprint
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at asc").
		Find(&out).Error
	return out, translate("list sprints", err)
}

func (s *Store) PutSprint(ctx context.Context, sp models.Sprint) error {
	return translate("put sprint", s.db.WithContext(ctx).Save(&sp).Error)
}

func (s *Store) GetTaskSprint(ctx context.Context, taskID string) (models.SprintTask, error) {
	var m models.SprintTask
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&m).Error
	return m, translate("get task sprint", err)
}

func (s *Store) PutTaskSprint(ctx context.Context, m models.SprintTask) error {
	return translate("put task sprint", s.db.WithContext(ctx).Save(&m).Error)
}

func (s *Store) DeleteTaskSprint(ctx context.Context, taskID string) error {
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&models.SprintTask{}).Error
	return translate("delete task sprint", err)
}

func (s *Store) ListSprintTasks(ctx context.Context, sprintID string) ([]models.SprintTask, error) {
	var out []models.SprintTask
	err := s.db.WithContext(ctx).
		Where("sprint_id = ?", sprintID).
		Order("added_at asc, task_id asc").
		Find(&out).Error
	return out, translate("list sprint tasks", err)
}

// Activity

func (s *Store) AppendActivity(ctx context.Context, a models.TaskActivity) error {
	return translate("append activity", s.db.WithContext(ctx).Create(&a).Error)
}

func (s *Store) ListActivity(ctx context.Context, taskID string) ([]models.TaskActivity, error) {
	var out []models.TaskActivity
	err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&out).Error
	return out, translate("list activity", err)
}

// Users

func (s *Store) GetUserByName(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, translate("get user", err)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := s.db.WithContext(ctx).Order("username asc").Find(&out).Error
	return out, translate("list users", err)
}

func (s *Store) PutUser(ctx context.Context, u models.User) error {
	return translate("put user", s.db.WithContext(ctx).Save(&u).Error)
}
