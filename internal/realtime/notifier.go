package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/leon2m/arlmsv004-sub001/internal/models"
)

// Event is the message written to websocket clients.
type Event struct {
	Type     string              `json:"type"`
	Activity models.TaskActivity `json:"activity"`
}

const queueSize = 256

// Notifier publishes task activity to the hub. A single worker drains a
// buffered queue, so events reach clients in publish order and a slow client
// never delays a mutation. When the queue is full the event is dropped.
type Notifier struct {
	hub   *Hub
	log   *slog.Logger
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewNotifier(hub *Hub, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	n := &Notifier{
		hub:   hub,
		log:   log,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) Publish(_ context.Context, a models.TaskActivity) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- Event{Type: "task.activity", Activity: a}:
	default:
		n.log.Warn("activity queue full, event dropped", "task_id", a.TaskID, "field", a.Field)
	}
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.queue {
		msg, err := json.Marshal(ev)
		if err != nil {
			n.log.Error("marshal activity event", "task_id", ev.Activity.TaskID, "error", err)
			continue
		}
		sent := n.hub.Broadcast(ev.Activity.ProjectID, msg)
		n.log.Debug("activity broadcast", "project_id", ev.Activity.ProjectID, "field", ev.Activity.Field, "clients", sent)
	}
}

// Close stops accepting events and blocks until the queued ones are delivered.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}
