package workflow

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

var projectKeyRe = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

type statusSeed struct {
	name     string
	color    string
	category models.StatusCategory
	limit    int // WIP limit of the default board column, 0 for none
}

type edgeSeed struct {
	from, to, label string
}

type workflowSeed struct {
	statuses []statusSeed // first one is the default
	edges    []edgeSeed
}

// Workflows seeded into new projects, by kind. Blocked work always returns
// through In Progress.
var workflowSeeds = map[models.ProjectKind]workflowSeed{
	models.KindClassic: {
		statuses: []statusSeed{
			{name: "To Do", color: "#6b7280", category: models.CategoryToDo},
			{name: "In Progress", color: "#2563eb", category: models.CategoryInProgress},
			{name: "Done", color: "#16a34a", category: models.CategoryDone},
		},
		edges: []edgeSeed{
			{"To Do", "In Progress", "Start"},
			{"In Progress", "To Do", "Stop"},
			{"In Progress", "Done", "Finish"},
			{"Done", "In Progress", "Reopen"},
		},
	},
	models.KindScrum: {
		statuses: []statusSeed{
			{name: "To Do", color: "#6b7280", category: models.CategoryToDo},
			{name: "In Progress", color: "#2563eb", category: models.CategoryInProgress},
			{name: "Review", color: "#9333ea", category: models.CategoryReview},
			{name: "Done", color: "#16a34a", category: models.CategoryDone},
			{name: "Blocked", color: "#dc2626", category: models.CategoryBlocked},
		},
		edges: []edgeSeed{
			{"To Do", "In Progress", "Start"},
			{"In Progress", "To Do", "Stop"},
			{"In Progress", "Review", "Request review"},
			{"Review", "In Progress", "Request changes"},
			{"Review", "Done", "Approve"},
			{"In Progress", "Blocked", "Block"},
			{"Blocked", "In Progress", "Unblock"},
			{"Done", "In Progress", "Reopen"},
		},
	},
	models.KindKanban: {
		statuses: []statusSeed{
			{name: "Backlog", color: "#6b7280", category: models.CategoryToDo},
			{name: "Selected", color: "#0891b2", category: models.CategoryToDo},
			{name: "In Progress", color: "#2563eb", category: models.CategoryInProgress, limit: 3},
			{name: "Blocked", color: "#dc2626", category: models.CategoryBlocked},
			{name: "Done", color: "#16a34a", category: models.CategoryDone},
		},
		edges: []edgeSeed{
			{"Backlog", "Selected", "Select"},
			{"Selected", "Backlog", "Deselect"},
			{"Selected", "In Progress", "Start"},
			{"In Progress", "Selected", "Stop"},
			{"In Progress", "Blocked", "Block"},
			{"Blocked", "In Progress", "Unblock"},
			{"In Progress", "Done", "Finish"},
			{"Done", "In Progress", "Reopen"},
		},
	},
}

var prioritySeeds = []struct{ name, color string }{
	{"Highest", "#b91c1c"},
	{"High", "#ea580c"},
	{"Medium", "#ca8a04"},
	{"Low", "#16a34a"},
	{"Lowest", "#0891b2"},
}

var typeSeeds = []struct{ name, icon string }{
	{"Story", "bookmark"},
	{"Bug", "bug"},
	{"Task", "check"},
}

// ProjectInput describes a project to create.
type ProjectInput struct {
	Name        string
	Key         string
	Description string
	Kind        models.ProjectKind
	OwnerID     string
}

// StatusInput describes a status to add to a project's workflow.
type StatusInput struct {
	Name      string
	Color     string
	Category  models.StatusCategory
	IsDefault bool
}

// Projects administers projects and their catalogs.
type Projects struct {
	env
	catalog *Catalog
}

func NewProjects(st store.Store, catalog *Catalog, opts Options) *Projects {
	return &Projects{env: newEnv(st, opts), catalog: catalog}
}

// Create stores a project and seeds its workflow, priorities, types and a
// default board. The seeding is not atomic; a failure part way leaves a
// project with a partial catalog that can be completed administratively.
func (p *Projects) Create(ctx context.Context, in ProjectInput) (models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, invalid("name", "is required")
	}
	key := strings.TrimSpace(in.Key)
	if !projectKeyRe.MatchString(key) {
		return models.Project{}, invalid("key", "must be 2-10 uppercase letters or digits")
	}
	kind := in.Kind
	if kind == "" {
		kind = models.KindClassic
	}
	if !kind.Valid() {
		return models.Project{}, invalid("kind", "must be classic, scrum or kanban")
	}

	_, err := call(ctx, p.retry, "find project by key", func(ctx context.Context) (models.Project, error) {
		return p.store.FindProjectByKey(ctx, key)
	})
	switch {
	case err == nil:
		return models.Project{}, conflict("project key %q is already in use", key)
	case !errors.Is(err, store.ErrNotFound):
		return models.Project{}, err
	}

	now := p.now()
	project := models.Project{
		ID:          p.newID(),
		Name:        name,
		Key:         key,
		Description: strings.TrimSpace(in.Description),
		Kind:        kind,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := exec(ctx, p.retry, "put project", func(ctx context.Context) error {
		return p.store.PutProject(ctx, project)
	}); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Project{}, conflict("project key %q is already in use", key)
		}
		return models.Project{}, err
	}

	if err := p.seed(ctx, project); err != nil {
		return models.Project{}, err
	}
	p.catalog.Invalidate(project.ID)
	p.log.Info("project created", "project_id", project.ID, "key", project.Key, "kind", project.Kind)
	return project, nil
}

func (p *Projects) seed(ctx context.Context, project models.Project) error {
	seed := workflowSeeds[project.Kind]
	now := p.now()

	board := models.Board{
		ID:        p.newID(),
		ProjectID: project.ID,
		Name:      project.Key + " board",
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := exec(ctx, p.retry, "put board", func(ctx context.Context) error {
		return p.store.PutBoard(ctx, board)
	}); err != nil {
		return err
	}

	byName := make(map[string]string, len(seed.statuses))
	for i, s := range seed.statuses {
		status := models.TaskStatus{
			ID:        p.newID(),
			ProjectID: project.ID,
			Name:      s.name,
			Color:     s.color,
			Category:  s.category,
			Position:  i,
			IsDefault: i == 0,
		}
		byName[s.name] = status.ID
		if err := exec(ctx, p.retry, "put status", func(ctx context.Context) error {
			return p.store.PutStatus(ctx, status)
		}); err != nil {
			return err
		}

		column := models.BoardColumn{
			ID:       p.newID(),
			BoardID:  board.ID,
			StatusID: status.ID,
			Name:     s.name,
			Position: i,
		}
		if s.limit > 0 {
			limit := s.limit
			column.Limit = &limit
		}
		if err := exec(ctx, p.retry, "put column", func(ctx context.Context) error {
			return p.store.PutColumn(ctx, column)
		}); err != nil {
			return err
		}
	}

	for _, e := range seed.edges {
		t := models.WorkflowTransition{
			ID:           p.newID(),
			ProjectID:    project.ID,
			FromStatusID: byName[e.from],
			ToStatusID:   byName[e.to],
			Label:        e.label,
		}
		if err := exec(ctx, p.retry, "put transition", func(ctx context.Context) error {
			return p.store.PutTransition(ctx, t)
		}); err != nil {
			return err
		}
	}

	for i, s := range prioritySeeds {
		pr := models.TaskPriority{ID: p.newID(), ProjectID: project.ID, Name: s.name, Color: s.color, Position: i}
		if err := exec(ctx, p.retry, "put priority", func(ctx context.Context) error {
			return p.store.PutPriority(ctx, pr)
		}); err != nil {
			return err
		}
	}

	for _, s := range typeSeeds {
		tt := models.TaskType{ID: p.newID(), ProjectID: project.ID, Name: s.name, Icon: s.icon}
		if err := exec(ctx, p.retry, "put type", func(ctx context.Context) error {
			return p.store.PutType(ctx, tt)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Projects) Get(ctx context.Context, id string) (models.Project, error) {
	return p.project(ctx, id)
}

func (p *Projects) List(ctx context.Context, includeArchived bool) ([]models.Project, error) {
	all, err := call(ctx, p.retry, "list projects", p.store.ListProjects)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return all, nil
	}
	out := make([]models.Project, 0, len(all))
	for _, pr := range all {
		if !pr.Archived {
			out = append(out, pr)
		}
	}
	return out, nil
}

// Archive soft-deletes a project and cascades the archived flag to its tasks
// and boards. Archiving an archived project is a no-op.
func (p *Projects) Archive(ctx context.Context, id string) (models.Project, error) {
	project, err := p.project(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if project.Archived {
		return project, nil
	}

	tasks, err := p.listTasks(ctx, store.TaskQuery{ProjectID: id})
	if err != nil {
		return models.Project{}, err
	}
	now := p.now()
	for _, t := range tasks {
		t.Archived = true
		t.UpdatedAt = now
		if err := exec(ctx, p.retry, "put task", func(ctx context.Context) error {
			return p.store.PutTask(ctx, t)
		}); err != nil {
			return models.Project{}, err
		}
	}

	boards, err := call(ctx, p.retry, "list boards", func(ctx context.Context) ([]models.Board, error) {
		return p.store.ListBoards(ctx, id)
	})
	if err != nil {
		return models.Project{}, err
	}
	for _, b := range boards {
		if b.Archived {
			continue
		}
		b.Archived = true
		b.UpdatedAt = now
		if err := exec(ctx, p.retry, "put board", func(ctx context.Context) error {
			return p.store.PutBoard(ctx, b)
		}); err != nil {
			return models.Project{}, err
		}
	}

	project.Archived = true
	project.UpdatedAt = now
	if err := exec(ctx, p.retry, "put project", func(ctx context.Context) error {
		return p.store.PutProject(ctx, project)
	}); err != nil {
		return models.Project{}, err
	}
	p.catalog.Invalidate(id)
	p.log.Info("project archived", "project_id", id, "tasks", len(tasks), "boards", len(boards))
	return project, nil
}

// AddStatus appends a status to the workflow. The first status of a project
// always becomes its default; asking for a new default demotes the old one.
func (p *Projects) AddStatus(ctx context.Context, projectID string, in StatusInput) (models.TaskStatus, error) {
	if _, err := p.activeProject(ctx, projectID); err != nil {
		return models.TaskStatus{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.TaskStatus{}, invalid("name", "is required")
	}
	if !in.Category.Valid() {
		return models.TaskStatus{}, invalid("category", "must be one of to-do, in-progress, done, blocked, review")
	}

	snap, err := p.catalog.Refresh(ctx, projectID)
	if err != nil {
		return models.TaskStatus{}, err
	}
	position := 0
	for _, st := range snap.Statuses {
		if st.Position >= position {
			position = st.Position + 1
		}
	}

	status := models.TaskStatus{
		ID:        p.newID(),
		ProjectID: projectID,
		Name:      name,
		Color:     in.Color,
		Category:  in.Category,
		Position:  position,
		IsDefault: in.IsDefault || len(snap.Statuses) == 0,
	}
	if err := exec(ctx, p.retry, "put status", func(ctx context.Context) error {
		return p.store.PutStatus(ctx, status)
	}); err != nil {
		return models.TaskStatus{}, err
	}
	if status.IsDefault {
		if err := p.demoteDefaults(ctx, snap.Statuses, status.ID); err != nil {
			return models.TaskStatus{}, err
		}
	}
	p.catalog.Invalidate(projectID)
	return status, nil
}

// SetDefaultStatus makes statusID the only default status of the project.
func (p *Projects) SetDefaultStatus(ctx context.Context, projectID, statusID string) (models.TaskStatus, error) {
	snap, err := p.catalog.Refresh(ctx, projectID)
	if err != nil {
		return models.TaskStatus{}, err
	}
	status, ok := snap.Status(statusID)
	if !ok {
		return models.TaskStatus{}, invalid("statusId", "does not belong to the project")
	}
	if !status.IsDefault {
		status.IsDefault = true
		if err := exec(ctx, p.retry, "put status", func(ctx context.Context) error {
			return p.store.PutStatus(ctx, status)
		}); err != nil {
			return models.TaskStatus{}, err
		}
	}
	if err := p.demoteDefaults(ctx, snap.Statuses, statusID); err != nil {
		return models.TaskStatus{}, err
	}
	p.catalog.Invalidate(projectID)
	return status, nil
}

// demoteDefaults clears is_default on every status but keep. The new default
// is written first so the project is never left without one.
func (p *Projects) demoteDefaults(ctx context.Context, statuses []models.TaskStatus, keep string) error {
	for _, st := range statuses {
		if st.ID == keep || !st.IsDefault {
			continue
		}
		st.IsDefault = false
		if err := exec(ctx, p.retry, "put status", func(ctx context.Context) error {
			return p.store.PutStatus(ctx, st)
		}); err != nil {
			return err
		}
	}
	return nil
}

// AddTransition adds the edge from -> to to the project's workflow.
func (p *Projects) AddTransition(ctx context.Context, projectID, fromStatusID, toStatusID, label string) (models.WorkflowTransition, error) {
	if _, err := p.activeProject(ctx, projectID); err != nil {
		return models.WorkflowTransition{}, err
	}
	snap, err := p.catalog.Refresh(ctx, projectID)
	if err != nil {
		return models.WorkflowTransition{}, err
	}
	if _, ok := snap.Status(fromStatusID); !ok {
		return models.WorkflowTransition{}, invalid("fromStatusId", "does not belong to the project")
	}
	if _, ok := snap.Status(toStatusID); !ok {
		return models.WorkflowTransition{}, invalid("toStatusId", "does not belong to the project")
	}
	if fromStatusID == toStatusID {
		return models.WorkflowTransition{}, invalid("toStatusId", "must differ from fromStatusId")
	}
	if snap.Allows(fromStatusID, toStatusID) {
		return models.WorkflowTransition{}, invalid("toStatusId", "transition already exists")
	}

	t := models.WorkflowTransition{
		ID:           p.newID(),
		ProjectID:    projectID,
		FromStatusID: fromStatusID,
		ToStatusID:   toStatusID,
		Label:        strings.TrimSpace(label),
	}
	if err := exec(ctx, p.retry, "put transition", func(ctx context.Context) error {
		return p.store.PutTransition(ctx, t)
	}); err != nil {
		return models.WorkflowTransition{}, err
	}
	p.catalog.Invalidate(projectID)
	return t, nil
}

func (p *Projects) AddPriority(ctx context.Context, projectID, name, color string) (models.TaskPriority, error) {
	if _, err := p.activeProject(ctx, projectID); err != nil {
		return models.TaskPriority{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.TaskPriority{}, invalid("name", "is required")
	}
	snap, err := p.catalog.Refresh(ctx, projectID)
	if err != nil {
		return models.TaskPriority{}, err
	}
	position := 0
	for _, pr := range snap.Priorities {
		if pr.Position >= position {
			position = pr.Position + 1
		}
	}

	pr := models.TaskPriority{ID: p.newID(), ProjectID: projectID, Name: name, Color: color, Position: position}
	if err := exec(ctx, p.retry, "put priority", func(ctx context.Context) error {
		return p.store.PutPriority(ctx, pr)
	}); err != nil {
		return models.TaskPriority{}, err
	}
	p.catalog.Invalidate(projectID)
	return pr, nil
}

func (p *Projects) AddType(ctx context.Context, projectID, name, icon string) (models.TaskType, error) {
	if _, err := p.activeProject(ctx, projectID); err != nil {
		return models.TaskType{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.TaskType{}, invalid("name", "is required")
	}

	tt := models.TaskType{ID: p.newID(), ProjectID: projectID, Name: name, Icon: icon}
	if err := exec(ctx, p.retry, "put type", func(ctx context.Context) error {
		return p.store.PutType(ctx, tt)
	}); err != nil {
		return models.TaskType{}, err
	}
	p.catalog.Invalidate(projectID)
	return tt, nil
}
