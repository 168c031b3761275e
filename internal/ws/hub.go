// Package ws carries the real-time notification channel.
package ws

import (
	"sync"

	"github.com/necesitomasreviews/backend/internal/domain"
)

// Hub is the session registry mapping users to their live websocket
// sessions. It is created at server start, injected where needed, and torn
// down at shutdown. A user may hold any number of concurrent sessions;
// removing one leaves its siblings intact.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
	closed   bool
}

// NewHub creates an empty session registry.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*session]struct{})}
}

func (h *Hub) add(userID string, s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[*session]struct{})
		h.sessions[userID] = set
	}
	set[s] = struct{}{}
	return true
}

func (h *Hub) remove(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[userID]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, userID)
	}
}

// SessionCount returns the number of live sessions for a user.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Publish pushes a notification to every live session of the user.
// At-most-once: a user with no sessions misses the push and catches up via
// the persisted unread backlog on next connect.
func (h *Hub) Publish(userID string, n *domain.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions[userID] {
		s.enqueue(serverMessage{Type: msgNotification, Payload: n})
	}
}

// Shutdown closes every live session and rejects new registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	all := h.sessions
	h.sessions = make(map[string]map[*session]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for s := range set {
			s.close()
		}
	}
}
