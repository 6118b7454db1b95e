package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/auth"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey    = "user_id"
	UsernameKey  = "username"
	CanManageKey = "can_manage"
)

// JWTAuthMiddleware validates JWT token in Authorization header
func JWTAuthMiddleware(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		// browsers cannot set headers on websocket upgrades
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			return
		}

		claims, err := manager.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(CanManageKey, claims.CanManage)

		c.Next()
	}
}

// RequireCapability rejects callers whose token does not carry can_manage.
// It must run after JWTAuthMiddleware.
func RequireCapability() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CanManageKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "This action requires the manage capability",
			})
			return
		}
		c.Next()
	}
}
