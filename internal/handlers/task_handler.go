package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/filter"
	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title          string            `json:"title" binding:"required"`
	Description    string            `json:"description"`
	StatusID       string            `json:"statusId"`
	PriorityID     string            `json:"priorityId"`
	TypeID         string            `json:"typeId"`
	AssigneeID     string            `json:"assigneeId"`
	DueDate        *string           `json:"dueDate"`
	EstimatedHours *float64          `json:"estimatedHours"`
	Labels         []string          `json:"labels"`
	Metadata       map[string]string `json:"metadata"`
}

// UpdateTaskRequest represents the request payload for updating a task.
// Status is changed through the move endpoint only.
type UpdateTaskRequest struct {
	Title          *string           `json:"title"`
	Description    *string           `json:"description"`
	PriorityID     *string           `json:"priorityId"`
	TypeID         *string           `json:"typeId"`
	AssigneeID     *string           `json:"assigneeId"`
	DueDate        *string           `json:"dueDate"`
	ClearDueDate   bool              `json:"clearDueDate"`
	EstimatedHours *float64          `json:"estimatedHours"`
	LoggedHours    *float64          `json:"loggedHours"`
	Labels         *[]string         `json:"labels"`
	Metadata       map[string]string `json:"metadata"`
}

// MoveTaskRequest moves a task to another status. With enforceLimit and a
// boardId, a move into a full column is refused.
type MoveTaskRequest struct {
	StatusID     string `json:"statusId" binding:"required"`
	BoardID      string `json:"boardId"`
	EnforceLimit bool   `json:"enforceLimit"`
}

type AssignSprintRequest struct {
	SprintID string `json:"sprintId" binding:"required"`
}

// ListTasks handles GET /api/projects/:id/tasks
// Query params: search, status, priority, assignee, due (date), sort (field[:asc|desc]).
func (h *Handler) ListTasks(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")

	order, err := filter.ParseOrder(c.Query("sort"))
	if err != nil {
		badRequest(c, err)
		return
	}
	spec := filter.Spec{
		Search:     c.Query("search"),
		StatusID:   c.Query("status"),
		PriorityID: c.Query("priority"),
		AssigneeID: c.Query("assignee"),
	}
	if raw := c.Query("due"); raw != "" {
		due, ok := parseDateFlexible(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date"})
			return
		}
		spec.DueDate = &due
	}

	tasks, err := h.engine.Tasks.List(ctx, projectID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ranks, err := h.engine.Catalog.Ranks(ctx, projectID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	view := filter.Apply(tasks, spec, order, ranks)
	c.JSON(http.StatusOK, gin.H{
		"tasks": view,
		"count": len(view),
		"total": len(tasks),
	})
}

// CreateTask handles POST /api/projects/:id/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := parseOptionalDate("dueDate", req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.engine.Tasks.Create(actorContext(c), workflow.CreateTaskInput{
		ProjectID:      c.Param("id"),
		Title:          req.Title,
		Description:    req.Description,
		StatusID:       req.StatusID,
		PriorityID:     req.PriorityID,
		TypeID:         req.TypeID,
		AssigneeID:     req.AssigneeID,
		DueDate:        due,
		EstimatedHours: req.EstimatedHours,
		Labels:         req.Labels,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.engine.Tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles PATCH /api/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := parseOptionalDate("dueDate", req.DueDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	task, err := h.engine.Tasks.Update(actorContext(c), c.Param("id"), workflow.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		PriorityID:     req.PriorityID,
		TypeID:         req.TypeID,
		AssigneeID:     req.AssigneeID,
		DueDate:        due,
		ClearDueDate:   req.ClearDueDate,
		EstimatedHours: req.EstimatedHours,
		LoggedHours:    req.LoggedHours,
		Labels:         req.Labels,
		Metadata:       req.Metadata,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// MoveTask handles POST /api/tasks/:id/move
func (h *Handler) MoveTask(c *gin.Context) {
	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := actorContext(c)
	taskID := c.Param("id")

	if req.EnforceLimit && req.BoardID != "" {
		task, err := h.engine.Tasks.Get(ctx, taskID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if task.StatusID != req.StatusID {
			col, ok, err := h.engine.Boards.ColumnForStatus(ctx, req.BoardID, req.StatusID)
			if err != nil {
				h.respondError(c, err)
				return
			}
			if ok {
				accept, err := h.engine.Boards.CanAcceptTask(ctx, req.BoardID, col.ID)
				if err != nil {
					h.respondError(c, err)
					return
				}
				if !accept {
					c.JSON(http.StatusConflict, gin.H{
						"error":    "Column has reached its WIP limit",
						"columnId": col.ID,
						"limit":    col.Limit,
					})
					return
				}
			}
		}
	}

	task, err := h.engine.Tasks.Move(ctx, taskID, req.StatusID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GetTransitions handles GET /api/tasks/:id/transitions
func (h *Handler) GetTransitions(c *gin.Context) {
	statuses, err := h.engine.Tasks.Transitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// GetActivity handles GET /api/tasks/:id/activity
func (h *Handler) GetActivity(c *gin.Context) {
	history, err := h.engine.Tasks.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": history, "count": len(history)})
}

// DeleteTask handles DELETE /api/tasks/:id. Unknown ids are a 404 unless
// ?mode=idempotent is given.
func (h *Handler) DeleteTask(c *gin.Context) {
	mode := workflow.DeleteStrict
	switch c.Query("mode") {
	case "", "strict":
	case "idempotent":
		mode = workflow.DeleteIdempotent
	default:
		badRequest(c, errors.New("mode must be strict or idempotent"))
		return
	}
	if err := h.engine.Tasks.Delete(actorContext(c), c.Param("id"), mode); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// AssignSprint handles PUT /api/tasks/:id/sprint
func (h *Handler) AssignSprint(c *gin.Context) {
	var req AssignSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.engine.Sprints.AssignTask(actorContext(c), c.Param("id"), req.SprintID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// RemoveSprint handles DELETE /api/tasks/:id/sprint
func (h *Handler) RemoveSprint(c *gin.Context) {
	if err := h.engine.Sprints.RemoveTask(actorContext(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
