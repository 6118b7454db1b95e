package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/leon2m/arlmsv004-sub001/internal/auth"
	"github.com/leon2m/arlmsv004-sub001/internal/config"
	"github.com/leon2m/arlmsv004-sub001/internal/middleware"
	"github.com/leon2m/arlmsv004-sub001/internal/models"
	"github.com/leon2m/arlmsv004-sub001/internal/realtime"
	"github.com/leon2m/arlmsv004-sub001/internal/store/memstore"
	"github.com/leon2m/arlmsv004-sub001/internal/testutil"
	"github.com/leon2m/arlmsv004-sub001/internal/workflow"
)

type testServer struct {
	router  *gin.Engine
	handler *Handler
	engine  *workflow.Engine
	tokens  *auth.Manager
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authCfg := config.Auth{JWTSecret: "s", Issuer: "i", Audience: "a", TokenTTL: time.Hour, DefaultCanManage: true}
	st := memstore.New()
	log := testutil.DiscardLogger()
	hub := realtime.NewHub()
	notifier := realtime.NewNotifier(hub, log)
	t.Cleanup(notifier.Close)
	engine := workflow.New(st, workflow.Options{Log: log, Sink: notifier})
	tokens := auth.NewManager(authCfg)
	h := New(engine, st, tokens, hub, log, authCfg)

	r := gin.New()
	r.POST("/api/login", h.Login)
	api := r.Group("/api", middleware.JWTAuthMiddleware(tokens))
	api.GET("/users", h.GetAllUsers)
	api.POST("/projects", h.CreateProject)
	api.GET("/projects/:id", h.GetProject)
	api.GET("/projects/:id/statuses", h.ListStatuses)
	api.GET("/projects/:id/tasks", h.ListTasks)
	api.POST("/projects/:id/tasks", h.CreateTask)
	api.GET("/tasks/:id", h.GetTask)
	api.PATCH("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/move", h.MoveTask)
	api.GET("/tasks/:id/activity", h.GetActivity)
	api.PUT("/tasks/:id/sprint", h.AssignSprint)
	api.GET("/projects/:id/boards", h.ListBoards)
	api.GET("/boards/:id", h.GetBoard)
	api.PUT("/boards/:id/columns/:columnId/limit", h.SetColumnLimit)
	api.POST("/projects/:id/sprints", h.CreateSprint)
	api.POST("/projects/:id/sprints/:sprintId/start", h.StartSprint)
	api.POST("/sprints/:id/complete", h.CompleteSprint)

	token, err := tokens.GenerateToken("u-1", "alice", true)
	require.NoError(t, err)
	return &testServer{router: r, handler: h, engine: engine, tokens: tokens, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) project(t *testing.T, key string) models.Project {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/projects", map[string]any{"name": "Project " + key, "key": key})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Project](t, w)
}

func (s *testServer) statuses(t *testing.T, projectID string) map[string]models.TaskStatus {
	t.Helper()
	list, err := s.engine.Catalog.GetStatuses(context.Background(), projectID)
	require.NoError(t, err)
	out := make(map[string]models.TaskStatus, len(list))
	for _, st := range list {
		out[st.Name] = st
	}
	return out
}

func (s *testServer) createTask(t *testing.T, projectID string, body map[string]any) models.Task {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/projects/"+projectID+"/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Task](t, w)
}
