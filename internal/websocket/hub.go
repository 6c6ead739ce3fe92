package websocket

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hirestack/interview-backend/internal/model"
)

// Hub fans countdown ticks out to connected candidates. The engine publishes
// through a single callback; each WebSocket connection holds one buffered
// subscription channel. Slow consumers drop ticks rather than block the
// clock goroutines.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan TickEvent]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan TickEvent]struct{})}
}

func hubKey(candidateID int, roundID uuid.UUID) string {
	return fmt.Sprintf("%d:%s", candidateID, roundID)
}

// Subscribe registers a listener for one candidate's session. The returned
// cancel func must be called when the connection closes.
func (h *Hub) Subscribe(candidateID int, roundID uuid.UUID) (<-chan TickEvent, func()) {
	ch := make(chan TickEvent, 8)
	key := hubKey(candidateID, roundID)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan TickEvent]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a tick to every subscriber of the session. Never blocks.
func (h *Hub) Publish(candidateID int, roundID uuid.UUID, remaining int, status model.SessionStatus) {
	ev := TickEvent{Event: EventTick, Remaining: remaining, Status: status}

	h.mu.Lock()
	for ch := range h.subs[hubKey(candidateID, roundID)] {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}
