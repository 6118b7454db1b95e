package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

type CreateSprintRequest struct {
	Name      string  `json:"name" binding:"required"`
	Goal      string  `json:"goal"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

type CarryOverRequest struct {
	TargetSprintID string `json:"targetSprintId" binding:"required"`
}

// ListSprints handles GET /api/projects/:id/sprints
func (h *Handler) ListSprints(c *gin.Context) {
	sprints, err := h.engine.Sprints.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sprints": sprints, "count": len(sprints)})
}

// CreateSprint handles POST /api/projects/:id/sprints
func (h *Handler) CreateSprint(c *gin.Context) {
	var req CreateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := parseOptionalDate("startDate", req.StartDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	end, err := parseOptionalDate("endDate", req.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sp, err := h.engine.Sprints.Create(actorContext(c), workflow.SprintInput{
		ProjectID: c.Param("id"),
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// StartSprint handles POST /api/projects/:id/sprints/:sprintId/start
func (h *Handler) StartSprint(c *gin.Context) {
	sp, err := h.engine.Sprints.Start(actorContext(c), c.Param("id"), c.Param("sprintId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// CompleteSprint handles POST /api/sprints/:id/complete
func (h *Handler) CompleteSprint(c *gin.Context) {
	sp, err := h.engine.Sprints.Complete(actorContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

// CarryOver handles POST /api/sprints/:id/carry-over
func (h *Handler) CarryOver(c *gin.Context) {
	var req CarryOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	moved, err := h.engine.Sprints.CarryOverIncomplete(actorContext(c), c.Param("id"), req.TargetSprintID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": moved, "count": len(moved)})
}

// SprintTasks handles GET /api/sprints/:id/tasks
func (h *Handler) SprintTasks(c *gin.Context) {
	tasks, err := h.engine.Sprints.Tasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}
