package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CanManage bool   `json:"canManage"`
}

// GetAllUsers returns all users, e.g. for assignee pickers.
// GET /api/users
func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{
			ID:        u.ID,
			Username:  u.Username,
			CanManage: u.CanManage,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": resp,
		"count": len(resp),
	})
}
