package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/hub"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/metrics"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"

	"github.com/google/uuid"
)

// NotificationStore is the slice of the store the engine reads from.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

// Snapshot is what a session receives: the full bounded feed plus the
// derived unread count. The feed is always rebuilt from a fresh read, never
// patched incrementally, so it cannot drift from store truth.
type Snapshot struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// Engine keeps connected sessions synchronized with the notifications table.
type Engine struct {
	store   NotificationStore
	hub     *hub.Hub
	limit   int
	metrics metrics.Metrics
}

func NewEngine(store NotificationStore, h *hub.Hub, limit int, m metrics.Metrics) *Engine {
	if limit <= 0 {
		limit = 20
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &Engine{store: store, hub: h, limit: limit, metrics: m}
}

// Attach registers a session for the user and sends it the initial snapshot.
// A failed initial fetch leaves the session attached; the next change signal
// retries the fetch. The caller must Detach the returned client exactly once.
func (e *Engine) Attach(ctx context.Context, userID string) *hub.Client {
	client := &hub.Client{ID: uuid.NewString(), UserID: userID, Send: make(chan []byte, 16)}
	e.hub.Register(client)
	if payload, ok := e.snapshot(ctx, userID); ok {
		e.hub.SendToUser(userID, payload)
	}
	return client
}

// Detach tears the session down. Safe to call once per client; the hub
// ignores repeats.
func (e *Engine) Detach(client *hub.Client) {
	e.hub.Unregister(client)
}

// Refresh re-reads the user's feed and pushes the result to every connected
// session of that user. Called for each change signal; fetch failures are
// silent and recovered by the next signal.
func (e *Engine) Refresh(ctx context.Context, userID string) {
	if !e.hub.HasUser(userID) {
		return
	}
	payload, ok := e.snapshot(ctx, userID)
	if !ok {
		return
	}
	e.metrics.IncFeedRefresh()
	e.hub.SendToUser(userID, payload)
}

// snapshot runs the bounded fetch. A context cancelled mid-fetch discards
// the result instead of applying it to any session.
func (e *Engine) snapshot(ctx context.Context, userID string) ([]byte, bool) {
	notifications, err := e.store.ListNotifications(ctx, userID, e.limit)
	if err != nil {
		log.Printf("notify fetch user=%s error: %v", userID, err)
		return nil, false
	}
	if ctx.Err() != nil {
		return nil, false
	}
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	payload, err := json.Marshal(Snapshot{Notifications: notifications, UnreadCount: unread})
	if err != nil {
		return nil, false
	}
	return payload, true
}
