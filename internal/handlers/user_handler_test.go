package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAllUsers(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, login(t, s, "bob", "x").Code)
	require.Equal(t, http.StatusOK, login(t, s, "alice", "x").Code)

	w := s.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Users []UserResponse `json:"users"`
		Count int            `json:"count"`
	}](t, w)
	require.Equal(t, 2, resp.Count)
	require.Equal(t, "alice", resp.Users[0].Username)
}
