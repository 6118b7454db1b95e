package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

type ColumnRequest struct {
	StatusID string `json:"statusId" binding:"required"`
	Name     string `json:"name"`
	Limit    *int   `json:"limit"`
}

type CreateBoardRequest struct {
	Name    string          `json:"name" binding:"required"`
	Columns []ColumnRequest `json:"columns"`
}

// SetLimitRequest sets a column's WIP limit; a null limit removes it.
type SetLimitRequest struct {
	Limit *int `json:"limit"`
}

type ReorderRequest struct {
	TaskID string `json:"taskId" binding:"required"`
	Index  *int   `json:"index" binding:"required"`
}

func (r ColumnRequest) input() workflow.ColumnInput {
	return workflow.ColumnInput{StatusID: r.StatusID, Name: r.Name, Limit: r.Limit}
}

// ListBoards handles GET /api/projects/:id/boards
func (h *Handler) ListBoards(c *gin.Context) {
	boards, err := h.engine.Boards.ListBoards(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards, "count": len(boards)})
}

// CreateBoard handles POST /api/projects/:id/boards
func (h *Handler) CreateBoard(c *gin.Context) {
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	columns := make([]workflow.ColumnInput, 0, len(req.Columns))
	for _, col := range req.Columns {
		columns = append(columns, col.input())
	}
	board, cols, err := h.engine.Boards.CreateBoard(actorContext(c), c.Param("id"), req.Name, columns)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"board": board, "columns": cols})
}

// GetBoard handles GET /api/boards/:id and returns the board with its
// columns and their tasks.
func (h *Handler) GetBoard(c *gin.Context) {
	view, err := h.engine.Boards.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetColumns handles GET /api/boards/:id/columns
func (h *Handler) GetColumns(c *gin.Context) {
	cols, err := h.engine.Boards.GetColumns(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": cols})
}

// AddColumn handles POST /api/boards/:id/columns
func (h *Handler) AddColumn(c *gin.Context) {
	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	col, err := h.engine.Boards.AddColumn(actorContext(c), c.Param("id"), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, col)
}

// SetColumnLimit handles PUT /api/boards/:id/columns/:columnId/limit
func (h *Handler) SetColumnLimit(c *gin.Context) {
	var req SetLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	col, err := h.engine.Boards.SetColumnLimit(actorContext(c), c.Param("id"), c.Param("columnId"), req.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, col)
}

// GetColumnTasks handles GET /api/boards/:id/columns/:columnId/tasks
func (h *Handler) GetColumnTasks(c *gin.Context) {
	tasks, err := h.engine.Boards.GetColumnTasks(c.Request.Context(), c.Param("id"), c.Param("columnId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// CanAcceptTask handles GET /api/boards/:id/columns/:columnId/accept
func (h *Handler) CanAcceptTask(c *gin.Context) {
	ok, err := h.engine.Boards.CanAcceptTask(c.Request.Context(), c.Param("id"), c.Param("columnId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accept": ok})
}

// ReorderColumn handles POST /api/boards/:id/columns/:columnId/reorder
func (h *Handler) ReorderColumn(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tasks, err := h.engine.Boards.ReorderWithinColumn(actorContext(c), c.Param("id"), c.Param("columnId"), req.TaskID, *req.Index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
