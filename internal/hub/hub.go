package hub

import (
	"log"
	"sync"
)

// Client is one connected realtime session. Sessions are keyed by their own
// id; several clients may share a UserID (multiple open tabs).
type Client struct {
	ID     string
	UserID string
	Send   chan []byte
}

// Hub fans feed snapshots out to the sessions of a user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

// Unregister removes the client and closes its send channel. Calling it for
// a client that was already removed is a no-op, so teardown paths cannot
// double-close.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

// SendToUser delivers payload to every session of the user and reports how
// many sessions were reached. Slow clients drop the message rather than
// block the caller.
func (h *Hub) SendToUser(userID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, client := range h.clients {
		if client.UserID != userID {
			continue
		}
		sent++
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop message for client %s", client.ID)
		}
	}
	return sent
}

// HasUser reports whether any session of the user is connected.
func (h *Hub) HasUser(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID == userID {
			return true
		}
	}
	return false
}
