package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leon2m/arlmsv004-sub001/internal/auth"
	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/middleware"
	"github.com/leon2m/arlmsv004-sub001/internal/realtime"
	"github.com/leon2m/arlmsv004-sub001/internal/store"
	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

// Handler serves the HTTP API over one engine.
type Handler struct {
	engine *workflow.Engine
	store  store.Store
	tokens *auth.Manager
	hub    *realtime.Hub
	log    *slog.Logger
	auth   config.Auth
}

func New(engine *workflow.Engine, st store.Store, tokens *auth.Manager, hub *realtime.Hub, log *slog.Logger, authCfg config.Auth) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		engine: engine,
		store:  st,
		tokens: tokens,
		hub:    hub,
		log:    log,
		auth:   authCfg,
	}
}

// actorContext carries the authenticated user into the engine.
func actorContext(c *gin.Context) context.Context {
	return workflow.WithActor(c.Request.Context(), c.GetString(middleware.UserIDKey))
}

// respondError maps engine errors onto status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var (
		validation *workflow.ValidationError
		notFound   *workflow.NotFoundError
		transition *workflow.InvalidTransitionError
		conflict   *workflow.ConflictError
		transport  *workflow.TransportError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": validation.Field})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   err.Error(),
			"from":    transition.From,
			"to":      transition.To,
			"allowed": transition.Allowed,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &transport):
		h.log.Error("store unavailable", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is temporarily unavailable"})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func parseDateFlexible(dateStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",  // ISO date
		time.RFC3339,  // full RFC3339
		"2 Jan 2006",  // e.g., 30 Oct 2025
		"02 Jan 2006", // zero-padded day
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseOptionalDate reads a nullable date field; an unparsable value is an error.
func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, ok := parseDateFlexible(*raw)
	if !ok {
		return nil, &workflow.ValidationError{Field: field, Reason: "is not a valid date"}
	}
	return &t, nil
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"message": "Storage is not reachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Task workflow API is running",
	})
}
