package workflow

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// ColumnInput describes a board column. Limit, when set, must be positive.
type ColumnInput struct {
	StatusID string
	Name     string
	Limit    *int
}

// ColumnView is a column together with the tasks it currently shows.
type ColumnView struct {
	Column    models.BoardColumn `json:"column"`
	Tasks     []models.Task      `json:"tasks"`
	OverLimit bool               `json:"overLimit"`
}

type BoardView struct {
	Board   models.Board `json:"board"`
	Columns []ColumnView `json:"columns"`
}

// Boards groups a project's tasks into columns. WIP limits are advisory:
// nothing here stops a task from entering a full column.
type Boards struct {
	env
	catalog *Catalog
}

func NewBoards(st store.Store, catalog *Catalog, opts Options) *Boards {
	return &Boards{env: newEnv(st, opts), catalog: catalog}
}

func (b *Boards) CreateBoard(ctx context.Context, projectID, name string, columns []ColumnInput) (models.Board, []models.BoardColumn, error) {
	if _, err := b.activeProject(ctx, projectID); err != nil {
		return models.Board{}, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, nil, invalid("name", "is required")
	}
	for _, in := range columns {
		if err := b.validateColumn(ctx, projectID, in); err != nil {
			return models.Board{}, nil, err
		}
	}

	now := b.now()
	board := models.Board{ID: b.newID(), ProjectID: projectID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := exec(ctx, b.retry, "put board", func(ctx context.Context) error {
		return b.store.PutBoard(ctx, board)
	}); err != nil {
		return models.Board{}, nil, err
	}

	created := make([]models.BoardColumn, 0, len(columns))
	for i, in := range columns {
		col, err := b.putColumn(ctx, board.ID, i, in)
		if err != nil {
			return models.Board{}, nil, err
		}
		created = append(created, col)
	}
	return board, created, nil
}

func (b *Boards) GetBoard(ctx context.Context, id string) (models.Board, error) {
	return b.board(ctx, id)
}

// ListBoards returns the project's boards that are not archived.
func (b *Boards) ListBoards(ctx context.Context, projectID string) ([]models.Board, error) {
	if _, err := b.project(ctx, projectID); err != nil {
		return nil, err
	}
	all, err := call(ctx, b.retry, "list boards", func(ctx context.Context) ([]models.Board, error) {
		return b.store.ListBoards(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Board, 0, len(all))
	for _, board := range all {
		if !board.Archived {
			out = append(out, board)
		}
	}
	return out, nil
}

// GetColumns returns the board's columns in display order.
func (b *Boards) GetColumns(ctx context.Context, boardID string) ([]models.BoardColumn, error) {
	if _, err := b.board(ctx, boardID); err != nil {
		return nil, err
	}
	return b.columns(ctx, boardID)
}

func (b *Boards) columns(ctx context.Context, boardID string) ([]models.BoardColumn, error) {
	return call(ctx, b.retry, "list columns", func(ctx context.Context) ([]models.BoardColumn, error) {
		return b.store.ListColumns(ctx, boardID)
	})
}

func (b *Boards) AddColumn(ctx context.Context, boardID string, in ColumnInput) (models.BoardColumn, error) {
	board, err := b.board(ctx, boardID)
	if err != nil {
		return models.BoardColumn{}, err
	}
	if err := b.validateColumn(ctx, board.ProjectID, in); err != nil {
		return models.BoardColumn{}, err
	}
	cols, err := b.columns(ctx, boardID)
	if err != nil {
		return models.BoardColumn{}, err
	}
	position := 0
	for _, c := range cols {
		if c.Position >= position {
			position = c.Position + 1
		}
	}
	return b.putColumn(ctx, boardID, position, in)
}

// SetColumnLimit changes or, with a nil limit, removes a column's WIP cap.
func (b *Boards) SetColumnLimit(ctx context.Context, boardID, columnID string, limit *int) (models.BoardColumn, error) {
	if limit != nil && *limit <= 0 {
		return models.BoardColumn{}, invalid("limit", "must be a positive integer")
	}
	_, col, err := b.column(ctx, boardID, columnID)
	if err != nil {
		return models.BoardColumn{}, err
	}
	col.Limit = limit
	if err := exec(ctx, b.retry, "put column", func(ctx context.Context) error {
		return b.store.PutColumn(ctx, col)
	}); err != nil {
		return models.BoardColumn{}, err
	}
	return col, nil
}

func (b *Boards) validateColumn(ctx context.Context, projectID string, in ColumnInput) error {
	if in.Limit != nil && *in.Limit <= 0 {
		return invalid("limit", "must be a positive integer")
	}
	ok, err := b.catalog.ValidateStatusBelongs(ctx, projectID, in.StatusID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("statusId", "does not belong to the board's project")
	}
	return nil
}

func (b *Boards) putColumn(ctx context.Context, boardID string, position int, in ColumnInput) (models.BoardColumn, error) {
	col := models.BoardColumn{
		ID:       b.newID(),
		BoardID:  boardID,
		StatusID: in.StatusID,
		Name:     strings.TrimSpace(in.Name),
		Position: position,
		Limit:    in.Limit,
	}
	if col.Name == "" {
		if st, ok := b.statusName(ctx, boardID, in.StatusID); ok {
			col.Name = st
		}
	}
	if err := exec(ctx, b.retry, "put column", func(ctx context.Context) error {
		return b.store.PutColumn(ctx, col)
	}); err != nil {
		return models.BoardColumn{}, err
	}
	return col, nil
}

func (b *Boards) statusName(ctx context.Context, boardID, statusID string) (string, bool) {
	board, err := b.board(ctx, boardID)
	if err != nil {
		return "", false
	}
	snap, err := b.catalog.Snapshot(ctx, board.ProjectID)
	if err != nil {
		return "", false
	}
	st, ok := snap.Status(statusID)
	return st.Name, ok
}

// column resolves a column that must belong to the given board.
func (b *Boards) column(ctx context.Context, boardID, columnID string) (models.Board, models.BoardColumn, error) {
	board, err := b.board(ctx, boardID)
	if err != nil {
		return models.Board{}, models.BoardColumn{}, err
	}
	cols, err := b.columns(ctx, boardID)
	if err != nil {
		return models.Board{}, models.BoardColumn{}, err
	}
	for _, c := range cols {
		if c.ID == columnID {
			return board, c, nil
		}
	}
	return models.Board{}, models.BoardColumn{}, notFound("column", columnID)
}

// ColumnForStatus finds the first column of the board bound to statusID.
func (b *Boards) ColumnForStatus(ctx context.Context, boardID, statusID string) (models.BoardColumn, bool, error) {
	cols, err := b.GetColumns(ctx, boardID)
	if err != nil {
		return models.BoardColumn{}, false, err
	}
	for _, c := range cols {
		if c.StatusID == statusID {
			return c, true, nil
		}
	}
	return models.BoardColumn{}, false, nil
}

// GetColumnTasks returns the tasks whose current status is the column's
// status, ordered by position.
func (b *Boards) GetColumnTasks(ctx context.Context, boardID, columnID string) ([]models.Task, error) {
	board, col, err := b.column(ctx, boardID, columnID)
	if err != nil {
		return nil, err
	}
	return b.listTasks(ctx, store.TaskQuery{ProjectID: board.ProjectID, StatusID: col.StatusID})
}

// CanAcceptTask reports whether one more task fits under the column's limit.
// Callers wanting WIP enforcement check this before Tasks.Move.
func (b *Boards) CanAcceptTask(ctx context.Context, boardID, columnID string) (bool, error) {
	board, col, err := b.column(ctx, boardID, columnID)
	if err != nil {
		return false, err
	}
	if col.Limit == nil {
		return true, nil
	}
	tasks, err := b.listTasks(ctx, store.TaskQuery{ProjectID: board.ProjectID, StatusID: col.StatusID})
	if err != nil {
		return false, err
	}
	return len(tasks) < *col.Limit, nil
}

// ReorderWithinColumn moves a task to newIndex inside its column and rewrites
// the positions of that column's tasks to 0..n-1. Indexes past the end are
// clamped. Tasks in other columns are untouched.
func (b *Boards) ReorderWithinColumn(ctx context.Context, boardID, columnID, taskID string, newIndex int) ([]models.Task, error) {
	if newIndex < 0 {
		return nil, invalid("index", "must not be negative")
	}
	tasks, err := b.GetColumnTasks(ctx, boardID, columnID)
	if err != nil {
		return nil, err
	}

	from := -1
	for i, t := range tasks {
		if t.ID == taskID {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, invalid("taskId", "is not in the column")
	}
	if newIndex >= len(tasks) {
		newIndex = len(tasks) - 1
	}

	moved := tasks[from]
	ordered := slices.Insert(slices.Delete(slices.Clone(tasks), from, from+1), newIndex, moved)

	now := b.now()
	for i := range ordered {
		if ordered[i].Position == i {
			continue
		}
		ordered[i].Position = i
		ordered[i].UpdatedAt = now
		task := ordered[i]
		if err := exec(ctx, b.retry, "put task", func(ctx context.Context) error {
			return b.store.PutTask(ctx, task)
		}); err != nil {
			return nil, err
		}
	}
	if from != newIndex {
		b.record(ctx, moved, "position", strconv.Itoa(from), strconv.Itoa(newIndex))
	}
	return ordered, nil
}

// View returns every column of a board with its tasks.
func (b *Boards) View(ctx context.Context, boardID string) (BoardView, error) {
	board, err := b.board(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	cols, err := b.columns(ctx, boardID)
	if err != nil {
		return BoardView{}, err
	}
	tasks, err := b.listTasks(ctx, store.TaskQuery{ProjectID: board.ProjectID})
	if err != nil {
		return BoardView{}, err
	}

	byStatus := make(map[string][]models.Task)
	for _, t := range tasks {
		byStatus[t.StatusID] = append(byStatus[t.StatusID], t)
	}

	view := BoardView{Board: board, Columns: make([]ColumnView, 0, len(cols))}
	for _, c := range cols {
		ct := byStatus[c.StatusID]
		if ct == nil {
			ct = []models.Task{}
		}
		view.Columns = append(view.Columns, ColumnView{
			Column:    c,
			Tasks:     ct,
			OverLimit: c.Limit != nil && len(ct) > *c.Limit,
		})
	}
	return view, nil
}
