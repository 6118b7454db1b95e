package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// CreateTaskInput describes a new task. StatusID defaults to the project's
// default status.
type CreateTaskInput struct {
	ProjectID      string
	Title          string
	Description    string
	StatusID       string
	PriorityID     string
	TypeID         string
	AssigneeID     string
	ReporterID     string
	DueDate        *time.Time
	EstimatedHours *float64
	Labels         []string
	Metadata       map[string]string
}

// TaskPatch changes task fields other than status. Nil fields are left alone;
// an empty string clears PriorityID, TypeID or AssigneeID.
type TaskPatch struct {
	Title          *string
	Description    *string
	PriorityID     *string
	TypeID         *string
	AssigneeID     *string
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
	LoggedHours    *float64
	Labels         *[]string
	Metadata       map[string]string
}

func (p TaskPatch) empty() bool {
	return p.Title == nil && p.Description == nil && p.PriorityID == nil && p.TypeID == nil &&
		p.AssigneeID == nil && p.DueDate == nil && !p.ClearDueDate && p.EstimatedHours == nil &&
		p.LoggedHours == nil && p.Labels == nil && p.Metadata == nil
}

// DeleteMode selects how Delete treats an id that does not exist.
type DeleteMode int

const (
	// DeleteStrict fails with *NotFoundError for unknown ids.
	DeleteStrict DeleteMode = iota
	// DeleteIdempotent succeeds silently for unknown ids.
	DeleteIdempotent
)

// Tasks owns task records and moves them through their project's workflow.
type Tasks struct {
	env
	catalog *Catalog
}

func NewTasks(st store.Store, catalog *Catalog, opts Options) *Tasks {
	return &Tasks{env: newEnv(st, opts), catalog: catalog}
}

func (t *Tasks) Create(ctx context.Context, in CreateTaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, invalid("title", "is required")
	}
	if _, err := t.activeProject(ctx, in.ProjectID); err != nil {
		return models.Task{}, err
	}
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		return models.Task{}, invalid("estimatedHours", "must not be negative")
	}

	snap, err := t.catalog.Snapshot(ctx, in.ProjectID)
	if err != nil {
		return models.Task{}, err
	}

	statusID := in.StatusID
	if statusID == "" {
		def, ok := snap.Default()
		if !ok {
			return models.Task{}, invalid("statusId", "project has no default status")
		}
		statusID = def.ID
	} else {
		ok, err := t.catalog.ValidateStatusBelongs(ctx, in.ProjectID, statusID)
		if err != nil {
			return models.Task{}, err
		}
		if !ok {
			return models.Task{}, invalid("statusId", "does not belong to the project")
		}
	}
	if snap, err = t.withReferences(ctx, snap, in.PriorityID, in.TypeID); err != nil {
		return models.Task{}, err
	}
	if in.PriorityID != "" && !snap.HasPriority(in.PriorityID) {
		return models.Task{}, invalid("priorityId", "is not a known priority")
	}
	if in.TypeID != "" && !snap.HasType(in.TypeID) {
		return models.Task{}, invalid("typeId", "is not a known type")
	}

	position, err := t.nextPosition(ctx, in.ProjectID, statusID)
	if err != nil {
		return models.Task{}, err
	}

	now := t.now()
	task := models.Task{
		ID:             t.newID(),
		ProjectID:      in.ProjectID,
		StatusID:       statusID,
		PriorityID:     in.PriorityID,
		TypeID:         in.TypeID,
		AssigneeID:     in.AssigneeID,
		ReporterID:     in.ReporterID,
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		DueDate:        in.DueDate,
		EstimatedHours: in.EstimatedHours,
		Labels:         normalizeLabels(in.Labels),
		Position:       position,
		Metadata:       in.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if task.ReporterID == "" {
		task.ReporterID = ActorFrom(ctx)
	}
	if st, _ := snap.Status(statusID); st.Category == models.CategoryDone {
		task.CompletedAt = &now
	}

	if err := exec(ctx, t.retry, "put task", func(ctx context.Context) error {
		return t.store.PutTask(ctx, task)
	}); err != nil {
		return models.Task{}, err
	}

	t.record(ctx, task, "created", "", task.Title)
	t.log.Info("task created", "task_id", task.ID, "project_id", task.ProjectID, "status_id", task.StatusID)
	return task, nil
}

func (t *Tasks) Get(ctx context.Context, id string) (models.Task, error) {
	return t.task(ctx, id)
}

// List returns the non-archived tasks of a project ordered by position.
func (t *Tasks) List(ctx context.Context, projectID string) ([]models.Task, error) {
	if _, err := t.project(ctx, projectID); err != nil {
		return nil, err
	}
	return t.listTasks(ctx, store.TaskQuery{ProjectID: projectID})
}

// Update applies a patch and records one activity entry per changed field.
func (t *Tasks) Update(ctx context.Context, id string, patch TaskPatch) (models.Task, error) {
	task, err := t.task(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if patch.empty() {
		return models.Task{}, invalid("patch", "has no fields to update")
	}
	if task.Archived {
		return models.Task{}, invalid("id", "task is archived")
	}

	snap, err := t.catalog.Snapshot(ctx, task.ProjectID)
	if err != nil {
		return models.Task{}, err
	}
	var priorityID, typeID string
	if patch.PriorityID != nil {
		priorityID = *patch.PriorityID
	}
	if patch.TypeID != nil {
		typeID = *patch.TypeID
	}
	if snap, err = t.withReferences(ctx, snap, priorityID, typeID); err != nil {
		return models.Task{}, err
	}

	type change struct{ field, old, new string }
	var changes []change
	set := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, change{field, oldValue, newValue})
		}
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, invalid("title", "must not be empty")
		}
		set("title", task.Title, title)
		task.Title = title
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		set("description", task.Description, desc)
		task.Description = desc
	}
	if patch.PriorityID != nil {
		if *patch.PriorityID != "" && !snap.HasPriority(*patch.PriorityID) {
			return models.Task{}, invalid("priorityId", "is not a known priority")
		}
		set("priority", task.PriorityID, *patch.PriorityID)
		task.PriorityID = *patch.PriorityID
	}
	if patch.TypeID != nil {
		if *patch.TypeID != "" && !snap.HasType(*patch.TypeID) {
			return models.Task{}, invalid("typeId", "is not a known type")
		}
		set("type", task.TypeID, *patch.TypeID)
		task.TypeID = *patch.TypeID
	}
	if patch.AssigneeID != nil {
		set("assignee", task.AssigneeID, *patch.AssigneeID)
		task.AssigneeID = *patch.AssigneeID
	}
	if patch.ClearDueDate {
		set("due_date", formatDue(task.DueDate), "")
		task.DueDate = nil
	} else if patch.DueDate != nil {
		due := *patch.DueDate
		if task.DueDate == nil || !task.DueDate.Equal(due) {
			changes = append(changes, change{"due_date", formatDue(task.DueDate), formatDue(&due)})
		}
		task.DueDate = &due
	}
	if patch.EstimatedHours != nil {
		if *patch.EstimatedHours < 0 {
			return models.Task{}, invalid("estimatedHours", "must not be negative")
		}
		est := *patch.EstimatedHours
		set("estimated_hours", formatHours(task.EstimatedHours), formatHours(&est))
		task.EstimatedHours = &est
	}
	if patch.LoggedHours != nil {
		if *patch.LoggedHours < 0 {
			return models.Task{}, invalid("loggedHours", "must not be negative")
		}
		set("logged_hours", formatHours(&task.LoggedHours), formatHours(patch.LoggedHours))
		task.LoggedHours = *patch.LoggedHours
	}
	if patch.Labels != nil {
		labels := normalizeLabels(*patch.Labels)
		set("labels", strings.Join(task.Labels, ","), strings.Join(labels, ","))
		task.Labels = labels
	}
	if patch.Metadata != nil {
		merged := maps.Clone(task.Metadata)
		if merged == nil {
			merged = make(map[string]string, len(patch.Metadata))
		}
		// an empty value removes the key
		for k, v := range patch.Metadata {
			if v == "" {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		if !maps.Equal(merged, task.Metadata) {
			set("metadata", fmt.Sprint(task.Metadata), fmt.Sprint(merged))
		}
		task.Metadata = merged
	}

	if len(changes) == 0 {
		return task, nil
	}
	task.UpdatedAt = t.now()
	if err := exec(ctx, t.retry, "put task", func(ctx context.Context) error {
		return t.store.PutTask(ctx, task)
	}); err != nil {
		return models.Task{}, err
	}
	for _, c := range changes {
		t.record(ctx, task, c.field, c.old, c.new)
	}
	return task, nil
}

// Move transitions a task to another status along an edge of its project's
// workflow. Moving to the current status is a no-op and records nothing.
//
// The task is re-read from the store before validating, so the check runs
// against the latest status. Concurrent moves of the same task still race
// and the last write wins.
func (t *Tasks) Move(ctx context.Context, id, toStatusID string) (models.Task, error) {
	if toStatusID == "" {
		return models.Task{}, invalid("statusId", "is required")
	}
	task, err := t.task(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if task.StatusID == toStatusID {
		return task, nil
	}
	if task.Archived {
		return models.Task{}, invalid("id", "task is archived")
	}

	snap, err := t.catalog.Snapshot(ctx, task.ProjectID)
	if err != nil {
		return models.Task{}, err
	}
	_, known := snap.Status(toStatusID)
	if !known || !snap.Allows(task.StatusID, toStatusID) {
		// the cached workflow may predate a status or edge; decide on fresh data
		if snap, err = t.catalog.Refresh(ctx, task.ProjectID); err != nil {
			return models.Task{}, err
		}
	}
	// an unknown or foreign status has no edge either
	target, known := snap.Status(toStatusID)
	if !known || !snap.Allows(task.StatusID, toStatusID) {
		allowed := make([]string, 0)
		for _, st := range snap.Targets(task.StatusID) {
			allowed = append(allowed, st.ID)
		}
		return models.Task{}, &InvalidTransitionError{
			TaskID:  task.ID,
			From:    task.StatusID,
			To:      toStatusID,
			Allowed: allowed,
		}
	}

	position, err := t.nextPosition(ctx, task.ProjectID, toStatusID)
	if err != nil {
		return models.Task{}, err
	}

	from := task.StatusID
	now := t.now()
	task.StatusID = toStatusID
	task.Position = position
	task.UpdatedAt = now
	if target.Category == models.CategoryDone {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if err := exec(ctx, t.retry, "put task", func(ctx context.Context) error {
		return t.store.PutTask(ctx, task)
	}); err != nil {
		return models.Task{}, err
	}

	t.record(ctx, task, "status", from, toStatusID)
	t.log.Info("task moved", "task_id", task.ID, "from", from, "to", toStatusID)
	return task, nil
}

// Transitions lists the statuses a task may move to next.
func (t *Tasks) Transitions(ctx context.Context, id string) ([]models.TaskStatus, error) {
	task, err := t.task(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := t.catalog.Snapshot(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	return snap.Targets(task.StatusID), nil
}

// Delete removes a task and its sprint membership.
func (t *Tasks) Delete(ctx context.Context, id string, mode DeleteMode) error {
	task, err := t.task(ctx, id)
	if err != nil {
		if IsNotFound(err) && mode == DeleteIdempotent {
			return nil
		}
		return err
	}

	if err := exec(ctx, t.retry, "delete task sprint", func(ctx context.Context) error {
		return t.store.DeleteTaskSprint(ctx, id)
	}); err != nil {
		return err
	}
	err = exec(ctx, t.retry, "delete task", func(ctx context.Context) error {
		return t.store.DeleteTask(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		// removed concurrently between the read and the delete
		if mode == DeleteIdempotent {
			return nil
		}
		return notFound("task", id)
	}
	if err != nil {
		return err
	}

	t.record(ctx, task, "deleted", task.Title, "")
	t.log.Info("task deleted", "task_id", id, "project_id", task.ProjectID)
	return nil
}

// History returns the recorded activity of a task, oldest first.
func (t *Tasks) History(ctx context.Context, id string) ([]models.TaskActivity, error) {
	if _, err := t.task(ctx, id); err != nil {
		return nil, err
	}
	return call(ctx, t.retry, "list activity", func(ctx context.Context) ([]models.TaskActivity, error) {
		return t.store.ListActivity(ctx, id)
	})
}

// withReferences reloads the catalog once when a priority or type id is
// missing from the cached snapshot.
func (t *Tasks) withReferences(ctx context.Context, snap *Snapshot, priorityID, typeID string) (*Snapshot, error) {
	if (priorityID == "" || snap.HasPriority(priorityID)) && (typeID == "" || snap.HasType(typeID)) {
		return snap, nil
	}
	return t.catalog.Refresh(ctx, snap.ProjectID)
}

func normalizeLabels(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("%g", *h)
}
