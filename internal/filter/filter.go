// Package filter derives ordered views of task collections.
// Nothing here touches a store; inputs are never modified.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

// Spec holds the criteria of a view. Criteria are ANDed; empty ones are skipped.
type Spec struct {
	Search     string
	ProjectID  string
	StatusID   string
	PriorityID string
	AssigneeID string
	// DueDate matches tasks due on the same calendar day (UTC).
	DueDate *time.Time
}

type Field string

const (
	FieldNone      Field = ""
	FieldTitle     Field = "title"
	FieldDueDate   Field = "due_date"
	FieldCreatedAt Field = "created_at"
	FieldUpdatedAt Field = "updated_at"
	FieldStatus    Field = "status"
	FieldPriority  Field = "priority"
	FieldPosition  Field = "position"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is the sort key of a view. The zero Order keeps input order.
type Order struct {
	Field     Field
	Direction Direction
}

// Ranks gives the catalog position of statuses and priorities, so that they
// sort by workflow order rather than by name.
type Ranks struct {
	Status   map[string]int
	Priority map[string]int
}

// ParseOrder reads "field" or "field:direction".
func ParseOrder(raw string) (Order, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Order{}, nil
	}
	name, dir, _ := strings.Cut(raw, ":")
	o := Order{Field: Field(strings.ToLower(strings.TrimSpace(name))), Direction: Asc}
	switch o.Field {
	case FieldTitle, FieldDueDate, FieldCreatedAt, FieldUpdatedAt, FieldStatus, FieldPriority, FieldPosition:
	default:
		return Order{}, fmt.Errorf("unsupported sort field %q", name)
	}
	switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
	case "", Asc:
	case Desc:
		o.Direction = Desc
	default:
		return Order{}, fmt.Errorf("unsupported sort direction %q", dir)
	}
	return o, nil
}

// Apply returns a new slice holding the tasks matching spec, sorted by order.
// The sort is stable: tasks with equal keys keep their relative input order.
func Apply(tasks []models.Task, spec Spec, order Order, ranks Ranks) []models.Task {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(spec.Search))

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, spec, needle, fold) {
			out = append(out, t)
		}
	}

	if order.Field == FieldNone {
		return out
	}
	cmp := comparator(order.Field, ranks, fold)
	desc := order.Direction == Desc
	sort.SliceStable(out, func(i, j int) bool {
		c, decided := cmp(out[i], out[j])
		if decided {
			// missing values sort last in both directions
			return c < 0
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func matches(t models.Task, spec Spec, needle string, fold cases.Caser) bool {
	if spec.ProjectID != "" && t.ProjectID != spec.ProjectID {
		return false
	}
	if spec.StatusID != "" && t.StatusID != spec.StatusID {
		return false
	}
	if spec.PriorityID != "" && t.PriorityID != spec.PriorityID {
		return false
	}
	if spec.AssigneeID != "" && t.AssigneeID != spec.AssigneeID {
		return false
	}
	if spec.DueDate != nil && (t.DueDate == nil || !sameDay(*t.DueDate, *spec.DueDate)) {
		return false
	}
	if needle != "" {
		hay := fold.String(t.Title + "\n" + t.Description)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// comparator returns c<0, 0, c>0 for a against b. decided is true when the
// result comes from a missing value and must not be flipped by direction.
type compareFunc func(a, b models.Task) (c int, decided bool)

func comparator(field Field, ranks Ranks, fold cases.Caser) compareFunc {
	switch field {
	case FieldTitle:
		return func(a, b models.Task) (int, bool) {
			return strings.Compare(fold.String(a.Title), fold.String(b.Title)), false
		}
	case FieldDueDate:
		return func(a, b models.Task) (int, bool) { return compareTimes(a.DueDate, b.DueDate) }
	case FieldCreatedAt:
		return func(a, b models.Task) (int, bool) { return a.CreatedAt.Compare(b.CreatedAt), false }
	case FieldUpdatedAt:
		return func(a, b models.Task) (int, bool) { return a.UpdatedAt.Compare(b.UpdatedAt), false }
	case FieldStatus:
		return func(a, b models.Task) (int, bool) {
			return compareRanks(ranks.Status, a.StatusID, b.StatusID)
		}
	case FieldPriority:
		return func(a, b models.Task) (int, bool) {
			return compareRanks(ranks.Priority, a.PriorityID, b.PriorityID)
		}
	default:
		return func(a, b models.Task) (int, bool) { return a.Position - b.Position, false }
	}
}

func compareTimes(a, b *time.Time) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	}
	return a.Compare(*b), false
}

func compareRanks(rank map[string]int, a, b string) (int, bool) {
	ra, okA := rank[a]
	rb, okB := rank[b]
	switch {
	case !okA && !okB:
		return 0, true
	case !okA:
		return 1, true
	case !okB:
		return -1, true
	}
	return ra - rb, false
}
