package realtime

import (
	"sync"
)

// Client represents a single websocket client connection.
// The network conn itself is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active connections per project and broadcasts events to them.
type Hub struct {
	mu       sync.RWMutex
	projects map[string]map[Client]struct{}
}

func NewHub() *Hub {
	return &Hub{projects: make(map[string]map[Client]struct{})}
}

// Register adds a client under a project ID.
func (h *Hub) Register(projectID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.projects[projectID]; !ok {
		h.projects[projectID] = make(map[Client]struct{})
	}
	h.projects[projectID][client] = struct{}{}
}

// Unregister removes a client; a project with no clients left is dropped.
func (h *Hub) Unregister(projectID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.projects[projectID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.projects, projectID)
		}
	}
}

// Broadcast sends a message to every client watching a project and returns
// how many accepted it. Failed clients are cleaned up by their handler.
func (h *Hub) Broadcast(projectID string, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.projects[projectID] {
		if c.Send(message) {
			sent++
		}
	}
	return sent
}

// Clients reports how many connections watch a project.
func (h *Hub) Clients(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.projects[projectID])
}
