package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func login(t *testing.T, s *testServer, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestLogin_RegistersThenChecksPassword(t *testing.T) {
	s := newTestServer(t)

	w := login(t, s, "alice", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[LoginResponse](t, w)
	require.NotEmpty(t, first.Token)
	require.True(t, first.CanManage)

	claims, err := s.tokens.ValidateToken(first.Token)
	require.NoError(t, err)
	require.Equal(t, first.UserID, claims.UserID)

	w = login(t, s, "alice", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, first.UserID, decode[LoginResponse](t, w).UserID)

	w = login(t, s, "alice", "wrong")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	s := newTestServer(t)
	w := login(t, s, "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BlankUsernameIsRejected(t *testing.T) {
	s := newTestServer(t)
	before, err := s.handler.store.ListUsers(context.Background())
	require.NoError(t, err)

	w := login(t, s, "   ", "secret")
	require.Equal(t, http.StatusBadRequest, w.Code)

	after, err := s.handler.store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, after, len(before))

	w = login(t, s, "  bob  ", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "bob", decode[LoginResponse](t, w).Username)
}
