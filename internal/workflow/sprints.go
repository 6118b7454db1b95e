package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

type SprintInput struct {
	ProjectID string
	Name      string
	Goal      string
	StartDate *time.Time
	EndDate   *time.Time
}

// Sprints manages time-boxed iterations. A project has at most one active
// sprint and a task belongs to at most one sprint.
type Sprints struct {
	env
	catalog *Catalog
}

func NewSprints(st store.Store, catalog *Catalog, opts Options) *Sprints {
	return &Sprints{env: newEnv(st, opts), catalog: catalog}
}

func (s *Sprints) Create(ctx context.Context, in SprintInput) (models.Sprint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Sprint{}, invalid("name", "is required")
	}
	if _, err := s.activeProject(ctx, in.ProjectID); err != nil {
		return models.Sprint{}, err
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return models.Sprint{}, invalid("endDate", "must not be before startDate")
	}

	now := s.now()
	sp := models.Sprint{
		ID:        s.newID(),
		ProjectID: in.ProjectID,
		Name:      name,
		Goal:      strings.TrimSpace(in.Goal),
		Status:    models.SprintPlanning,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.put(ctx, sp); err != nil {
		return models.Sprint{}, err
	}
	return sp, nil
}

func (s *Sprints) Get(ctx context.Context, id string) (models.Sprint, error) {
	return s.sprint(ctx, id)
}

func (s *Sprints) List(ctx context.Context, projectID string) ([]models.Sprint, error) {
	if _, err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	return s.list(ctx, projectID)
}

func (s *Sprints) list(ctx context.Context, projectID string) ([]models.Sprint, error) {
	return call(ctx, s.retry, "list sprints", func(ctx context.Context) ([]models.Sprint, error) {
		return s.store.ListSprints(ctx, projectID)
	})
}

func (s *Sprints) put(ctx context.Context, sp models.Sprint) error {
	return exec(ctx, s.retry, "put sprint", func(ctx context.Context) error {
		return s.store.PutSprint(ctx, sp)
	})
}

// Active returns the project's active sprint, if any.
func (s *Sprints) Active(ctx context.Context, projectID string) (models.Sprint, bool, error) {
	sprints, err := s.List(ctx, projectID)
	if err != nil {
		return models.Sprint{}, false, err
	}
	for _, sp := range sprints {
		if sp.Status == models.SprintActive {
			return sp, true, nil
		}
	}
	return models.Sprint{}, false, nil
}

// Start activates a planned sprint. The project's sprints are re-read so a
// sprint started elsewhere is seen; two concurrent starts can still both win.
func (s *Sprints) Start(ctx context.Context, projectID, sprintID string) (models.Sprint, error) {
	sp, err := s.sprint(ctx, sprintID)
	if err != nil {
		return models.Sprint{}, err
	}
	if sp.ProjectID != projectID {
		return models.Sprint{}, invalid("sprintId", "does not belong to the project")
	}
	switch sp.Status {
	case models.SprintActive:
		return sp, nil
	case models.SprintCompleted:
		return models.Sprint{}, invalid("sprintId", "sprint is already completed")
	}

	sprints, err := s.list(ctx, projectID)
	if err != nil {
		return models.Sprint{}, err
	}
	for _, other := range sprints {
		if other.ID != sp.ID && other.Status == models.SprintActive {
			return models.Sprint{}, conflict("sprint %q is already active in the project", other.Name)
		}
	}

	now := s.now()
	sp.Status = models.SprintActive
	if sp.StartDate == nil {
		sp.StartDate = &now
	}
	sp.UpdatedAt = now
	if err := s.put(ctx, sp); err != nil {
		return models.Sprint{}, err
	}
	s.log.Info("sprint started", "sprint_id", sp.ID, "project_id", projectID)
	return sp, nil
}

// Complete closes an active sprint. Its incomplete tasks stay assigned until
// CarryOverIncomplete moves them.
func (s *Sprints) Complete(ctx context.Context, sprintID string) (models.Sprint, error) {
	sp, err := s.sprint(ctx, sprintID)
	if err != nil {
		return models.Sprint{}, err
	}
	if sp.Status != models.SprintActive {
		return models.Sprint{}, conflict("sprint is %s, only an active sprint can be completed", sp.Status)
	}
	now := s.now()
	sp.Status = models.SprintCompleted
	sp.CompleteDate = &now
	sp.UpdatedAt = now
	if err := s.put(ctx, sp); err != nil {
		return models.Sprint{}, err
	}
	s.log.Info("sprint completed", "sprint_id", sp.ID, "project_id", sp.ProjectID)
	return sp, nil
}

// CarryOverIncomplete moves every task of sprintID whose status is not in the
// done category to targetSprintID and returns the moved tasks.
func (s *Sprints) CarryOverIncomplete(ctx context.Context, sprintID, targetSprintID string) ([]models.Task, error) {
	if sprintID == targetSprintID {
		return nil, invalid("targetSprintId", "must differ from the source sprint")
	}
	src, err := s.sprint(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	dst, err := s.sprint(ctx, targetSprintID)
	if err != nil {
		return nil, err
	}
	if dst.ProjectID != src.ProjectID {
		return nil, invalid("targetSprintId", "belongs to another project")
	}
	if dst.Status == models.SprintCompleted {
		return nil, invalid("targetSprintId", "sprint is already completed")
	}

	snap, err := s.catalog.Snapshot(ctx, src.ProjectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.Tasks(ctx, sprintID)
	if err != nil {
		return nil, err
	}

	moved := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if st, ok := snap.Status(t.StatusID); ok && st.Category == models.CategoryDone {
			continue
		}
		if _, err := s.assign(ctx, t, dst, src.ID); err != nil {
			return moved, err
		}
		moved = append(moved, t)
	}
	s.log.Info("sprint carried over", "from", src.ID, "to", dst.ID, "tasks", len(moved))
	return moved, nil
}

// AssignTask puts a task into a sprint of the same project, replacing any
// membership it already had.
func (s *Sprints) AssignTask(ctx context.Context, taskID, sprintID string) (models.SprintTask, error) {
	task, err := s.task(ctx, taskID)
	if err != nil {
		return models.SprintTask{}, err
	}
	sp, err := s.sprint(ctx, sprintID)
	if err != nil {
		return models.SprintTask{}, err
	}
	if sp.ProjectID != task.ProjectID {
		return models.SprintTask{}, invalid("sprintId", "belongs to another project")
	}
	if sp.Status == models.SprintCompleted {
		return models.SprintTask{}, invalid("sprintId", "sprint is already completed")
	}

	prev, err := s.membership(ctx, taskID)
	if err != nil {
		return models.SprintTask{}, err
	}
	if prev != nil && prev.SprintID == sprintID {
		return *prev, nil
	}
	from := ""
	if prev != nil {
		from = prev.SprintID
	}
	return s.assign(ctx, task, sp, from)
}

func (s *Sprints) assign(ctx context.Context, task models.Task, sp models.Sprint, from string) (models.SprintTask, error) {
	m := models.SprintTask{TaskID: task.ID, SprintID: sp.ID, ProjectID: sp.ProjectID, AddedAt: s.now()}
	if err := exec(ctx, s.retry, "put task sprint", func(ctx context.Context) error {
		return s.store.PutTaskSprint(ctx, m)
	}); err != nil {
		return models.SprintTask{}, err
	}
	s.record(ctx, task, "sprint", from, sp.ID)
	return m, nil
}

// membership returns the task's sprint membership or nil.
func (s *Sprints) membership(ctx context.Context, taskID string) (*models.SprintTask, error) {
	m, err := fetch(ctx, &s.env, "sprint membership", taskID, s.store.GetTaskSprint)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveTask takes a task out of its sprint. A task without a sprint is left
// as is.
func (s *Sprints) RemoveTask(ctx context.Context, taskID string) error {
	task, err := s.task(ctx, taskID)
	if err != nil {
		return err
	}
	prev, err := s.membership(ctx, taskID)
	if err != nil || prev == nil {
		return err
	}
	if err := exec(ctx, s.retry, "delete task sprint", func(ctx context.Context) error {
		return s.store.DeleteTaskSprint(ctx, taskID)
	}); err != nil {
		return err
	}
	s.record(ctx, task, "sprint", prev.SprintID, "")
	return nil
}

// Tasks returns the sprint's tasks in the order they were added.
func (s *Sprints) Tasks(ctx context.Context, sprintID string) ([]models.Task, error) {
	if _, err := s.sprint(ctx, sprintID); err != nil {
		return nil, err
	}
	members, err := call(ctx, s.retry, "list sprint tasks", func(ctx context.Context) ([]models.SprintTask, error) {
		return s.store.ListSprintTasks(ctx, sprintID)
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(members))
	for _, m := range members {
		t, err := s.task(ctx, m.TaskID)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Overdue lists active sprints of non-archived projects whose end date is
// before at.
func (s *Sprints) Overdue(ctx context.Context, at time.Time) ([]models.Sprint, error) {
	projects, err := call(ctx, s.retry, "list projects", func(ctx context.Context) ([]models.Project, error) {
		return s.store.ListProjects(ctx)
	})
	if err != nil {
		return nil, err
	}
	var out []models.Sprint
	for _, p := range projects {
		if p.Archived {
			continue
		}
		sprints, err := s.list(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, sp := range sprints {
			if sp.Status == models.SprintActive && sp.EndDate != nil && sp.EndDate.Before(at) {
				out = append(out, sp)
			}
		}
	}
	return out, nil
}
