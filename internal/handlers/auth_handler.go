package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	CanManage bool   `json:"can_manage"`
	Message   string `json:"message"`
}

// Login handles POST /api/login. Unknown usernames are registered on first
// login; known ones must present the stored password.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username must not be blank", "field": "username"})
		return
	}
	ctx := c.Request.Context()

	user, err := h.store.GetUserByName(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.respondError(c, err)
			return
		}
		user = models.User{
			ID:           uuid.NewString(),
			Username:     username,
			PasswordHash: string(hash),
			CanManage:    h.auth.DefaultCanManage,
		}
		if err := h.store.PutUser(ctx, user); err != nil {
			h.respondError(c, err)
			return
		}
		h.log.Info("user registered", "user_id", user.ID, "username", username)
	case err != nil:
		h.respondError(c, err)
		return
	default:
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Username, user.CanManage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		CanManage: user.CanManage,
		Message:   "Login successful",
	})
}
