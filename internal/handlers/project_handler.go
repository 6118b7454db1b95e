package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/middleware"
	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

type CreateProjectRequest struct {
	Name        string             `json:"name" binding:"required"`
	Key         string             `json:"key" binding:"required"`
	Description string             `json:"description"`
	Kind        models.ProjectKind `json:"kind"`
}

type AddStatusRequest struct {
	Name      string                `json:"name" binding:"required"`
	Color     string                `json:"color"`
	Category  models.StatusCategory `json:"category" binding:"required"`
	IsDefault bool                  `json:"isDefault"`
}

type AddTransitionRequest struct {
	FromStatusID string `json:"fromStatusId" binding:"required"`
	ToStatusID   string `json:"toStatusId" binding:"required"`
	Label        string `json:"label"`
}

type AddPriorityRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type AddTypeRequest struct {
	Name string `json:"name" binding:"required"`
	Icon string `json:"icon"`
}

// ListProjects handles GET /api/projects?archived=true
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.engine.Projects.List(c.Request.Context(), c.Query("archived") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	project, err := h.engine.Projects.Create(actorContext(c), workflow.ProjectInput{
		Name:        req.Name,
		Key:         req.Key,
		Description: req.Description,
		Kind:        req.Kind,
		OwnerID:     c.GetString(middleware.UserIDKey),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetProject handles GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.engine.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// ArchiveProject handles DELETE /api/projects/:id. Projects are archived,
// never removed.
func (h *Handler) ArchiveProject(c *gin.Context) {
	project, err := h.engine.Projects.Archive(actorContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// ListStatuses handles GET /api/projects/:id/statuses
func (h *Handler) ListStatuses(c *gin.Context) {
	statuses, err := h.engine.Catalog.GetStatuses(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// AddStatus handles POST /api/projects/:id/statuses
func (h *Handler) AddStatus(c *gin.Context) {
	var req AddStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, err := h.engine.Projects.AddStatus(actorContext(c), c.Param("id"), workflow.StatusInput{
		Name:      req.Name,
		Color:     req.Color,
		Category:  req.Category,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

// SetDefaultStatus handles PUT /api/projects/:id/statuses/:statusId/default
func (h *Handler) SetDefaultStatus(c *gin.Context) {
	status, err := h.engine.Projects.SetDefaultStatus(actorContext(c), c.Param("id"), c.Param("statusId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListTransitions handles GET /api/projects/:id/transitions
func (h *Handler) ListTransitions(c *gin.Context) {
	transitions, err := h.engine.Catalog.GetTransitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": transitions})
}

// AddTransition handles POST /api/projects/:id/transitions
func (h *Handler) AddTransition(c *gin.Context) {
	var req AddTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.engine.Projects.AddTransition(actorContext(c), c.Param("id"), req.FromStatusID, req.ToStatusID, req.Label)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListPriorities handles GET /api/projects/:id/priorities
func (h *Handler) ListPriorities(c *gin.Context) {
	priorities, err := h.engine.Catalog.GetPriorities(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"priorities": priorities})
}

// AddPriority handles POST /api/projects/:id/priorities
func (h *Handler) AddPriority(c *gin.Context) {
	var req AddPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.engine.Projects.AddPriority(actorContext(c), c.Param("id"), req.Name, req.Color)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListTypes handles GET /api/projects/:id/types
func (h *Handler) ListTypes(c *gin.Context) {
	types, err := h.engine.Catalog.GetTypes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

// AddType handles POST /api/projects/:id/types
func (h *Handler) AddType(c *gin.Context) {
	var req AddTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.engine.Projects.AddType(actorContext(c), c.Param("id"), req.Name, req.Icon)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}
