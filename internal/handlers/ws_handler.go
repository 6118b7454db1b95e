package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/leon2m/arlmsv004-sub001/internal/middleware"
	"github.com/leon2m/arlmsv004-sub001/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin checks happen in the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket handles GET /api/ws?project=<id>. The connection receives the
// activity events of that project until the client goes away.
func (h *Handler) WebSocket(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	projectID := c.Query("project")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project query parameter is required", "field": "project"})
		return
	}
	if _, err := h.engine.Projects.Get(c.Request.Context(), projectID); err != nil {
		h.respondError(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.log.Debug("websocket connected", "user_id", userID, "project_id", projectID)
	realtime.NewConn(ws).Serve(h.hub, projectID)
	h.log.Debug("websocket closed", "user_id", userID, "project_id", projectID)
}
