// Package memstore is an in-process implementation of store.Store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// Store keeps every entity in maps guarded by a single RWMutex.
// Values are copied on the way in and out so callers never share state.
type Store struct {
	mu sync.RWMutex

	projects    map[string]models.Project
	statuses    map[string]models.TaskStatus
	transitions map[string]models.WorkflowTransition
	priorities  map[string]models.TaskPriority
	types       map[string]models.TaskType
	tasks       map[string]models.Task
	boards      map[string]models.Board
	columns     map[string]models.BoardColumn
	sprints     map[string]models.Sprint
	membership  map[string]models.SprintTask
	activity    []models.TaskActivity
	users       map[string]models.User
}

// New returns an empty store.
func New() *Store {
	return &Store{
		projects:    make(map[string]models.Project),
		statuses:    make(map[string]models.TaskStatus),
		transitions: make(map[string]models.WorkflowTransition),
		priorities:  make(map[string]models.TaskPriority),
		types:       make(map[string]models.TaskType),
		tasks:       make(map[string]models.Task),
		boards:      make(map[string]models.Board),
		columns:     make(map[string]models.BoardColumn),
		sprints:     make(map[string]models.Sprint),
		membership:  make(map[string]models.SprintTask),
		users:       make(map[string]models.User),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Projects

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	if err := ctx.Err(); err != nil {
		return models.Project{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) FindProjectByKey(ctx context.Context, key string) (models.Project, error) {
	if err := ctx.Err(); err != nil {
		return models.Project{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.Key == key {
			return p, nil
		}
	}
	return models.Project{}, store.ErrNotFound
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PutProject(ctx context.Context, p models.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.projects {
		if id != p.ID && other.Key == p.Key {
			return store.ErrDuplicate
		}
	}
	s.projects[p.ID] = p
	return nil
}

// Catalog

func (s *Store) ListStatuses(ctx context.Context, projectID string) ([]models.TaskStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaskStatus
	for _, st := range s.statuses {
		if st.ProjectID == projectID {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) PutStatus(ctx context.Context, st models.TaskStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.ID] = st
	return nil
}

func (s *Store) ListTransitions(ctx context.Context, projectID string) ([]models.WorkflowTransition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.WorkflowTransition
	for _, t := range s.transitions {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) PutTransition(ctx context.Context, t models.WorkflowTransition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions[t.ID] = t
	return nil
}

func (s *Store) ListPriorities(ctx context.Context, projectID string) ([]models.TaskPriority, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaskPriority
	for _, p := range s.priorities {
		if p.ProjectID == projectID || p.ProjectID == "" {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) PutPriority(ctx context.Context, p models.TaskPriority) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priorities[p.ID] = p
	return nil
}

func (s *Store) ListTypes(ctx context.Context, projectID string) ([]models.TaskType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaskType
	for _, t := range s.types {
		if t.ProjectID == projectID || t.ProjectID == "" {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutType(ctx context.Context, t models.TaskType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[t.ID] = t
	return nil
}

// Tasks

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	if err := ctx.Err(); err != nil {
		return models.Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, store.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) ListTasks(ctx context.Context, q store.TaskQuery) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Task
	for _, t := range s.tasks {
		if q.ProjectID != "" && t.ProjectID != q.ProjectID {
			continue
		}
		if q.StatusID != "" && t.StatusID != q.StatusID {
			continue
		}
		if t.Archived && !q.IncludeArchived {
			continue
		}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) PutTask(ctx context.Context, t models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// Boards

func (s *Store) GetBoard(ctx context.Context, id string) (models.Board, error) {
	if err := ctx.Err(); err != nil {
		return models.Board{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[id]
	if !ok {
		return models.Board{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBoards(ctx context.Context, projectID string) ([]models.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Board
	for _, b := range s.boards {
		if b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PutBoard(ctx context.Context, b models.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[b.ID] = b
	return nil
}

func (s *Store) ListColumns(ctx context.Context, boardID string) ([]models.BoardColumn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.BoardColumn
	for _, c := range s.columns {
		if c.BoardID == boardID {
			out = append(out, cloneColumn(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) PutColumn(ctx context.Context, c models.BoardColumn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns[c.ID] = cloneColumn(c)
	return nil
}

func cloneColumn(c models.BoardColumn) models.BoardColumn {
	if c.Limit != nil {
		l := *c.Limit
		c.Limit = &l
	}
	return c
}

// Sprints

func (s *Store) GetSprint(ctx context.Context, id string) (models.Sprint, error) {
	if err := ctx.Err(); err != nil {
		return models.Sprint{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.sprints[id]
	if !ok {
		return models.Sprint{}, store.ErrNotFound
	}
	return sp, nil
}

func (s *Store) ListSprints(ctx context.Context, projectID string) ([]models.Sprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Sprint
	for _, sp := range s.sprints {
		if sp.ProjectID == projectID {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PutSprint(ctx context.Context, sp models.Sprint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprints[sp.ID] = sp
	return nil
}

func (s *Store) GetTaskSprint(ctx context.Context, taskID string) (models.SprintTask, error) {
	if err := ctx.Err(); err != nil {
		return models.SprintTask{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.membership[taskID]
	if !ok {
		return models.SprintTask{}, store.ErrNotFound
	}
	return m, nil
}

func (s *Store) PutTaskSprint(ctx context.Context, m models.SprintTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.membership[m.TaskID] = m
	return nil
}

func (s *Store) DeleteTaskSprint(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.membership, taskID)
	return nil
}

func (s *Store) ListSprintTasks(ctx context.Context, sprintID string) ([]models.SprintTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SprintTask
	for _, m := range s.membership {
		if m.SprintID == sprintID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out, nil
}

// Activity

func (s *Store) AppendActivity(ctx context.Context, a models.TaskActivity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, a)
	return nil
}

func (s *Store) ListActivity(ctx context.Context, taskID string) ([]models.TaskActivity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TaskActivity
	for _, a := range s.activity {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Users

func (s *Store) GetUserByName(ctx context.Context, username string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) PutUser(ctx context.Context, u models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.users {
		if id != u.ID && other.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	s.users[u.ID] = u
	return nil
}
