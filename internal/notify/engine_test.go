package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/hub"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationStore struct {
	listFn func(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

func (f fakeNotificationStore) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return f.listFn(ctx, userID, limit)
}

func receiveSnapshot(t *testing.T, client *hub.Client) Snapshot {
	t.Helper()
	select {
	case payload := <-client.Send:
		var snap Snapshot
		require.NoError(t, json.Unmarshal(payload, &snap))
		return snap
	default:
		t.Fatal("no snapshot delivered")
		return Snapshot{}
	}
}

func TestAttachDeliversInitialSnapshot(t *testing.T) {
	st := fakeNotificationStore{listFn: func(_ context.Context, userID string, limit int) ([]models.Notification, error) {
		assert.Equal(t, "user-1", userID)
		assert.Equal(t, 20, limit)
		return []models.Notification{
			{NotificationID: "n2", UserID: userID, Read: false},
			{NotificationID: "n1", UserID: userID, Read: true},
		}, nil
	}}
	e := NewEngine(st, hub.New(), 0, nil)

	client := e.Attach(context.Background(), "user-1")
	defer e.Detach(client)

	snap := receiveSnapshot(t, client)
	assert.Len(t, snap.Notifications, 2)
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestAttachSurvivesInitialFetchFailure(t *testing.T) {
	calls := 0
	st := fakeNotificationStore{listFn: func(context.Context, string, int) ([]models.Notification, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("store down")
		}
		return nil, nil
	}}
	e := NewEngine(st, hub.New(), 20, nil)

	client := e.Attach(context.Background(), "user-1")
	defer e.Detach(client)
	assert.Empty(t, client.Send, "failed fetch must not deliver a snapshot")

	// The next change signal recovers the session.
	e.Refresh(context.Background(), "user-1")
	snap := receiveSnapshot(t, client)
	assert.Equal(t, []models.Notification{}, snap.Notifications)
	assert.Equal(t, 0, snap.UnreadCount)
}

func TestRefreshPushesFullFeedToEverySession(t *testing.T) {
	feed := []models.Notification{{NotificationID: "n1", UserID: "user-1", Read: false}}
	st := fakeNotificationStore{listFn: func(context.Context, string, int) ([]models.Notification, error) {
		return feed, nil
	}}
	e := NewEngine(st, hub.New(), 20, nil)

	tab1 := e.Attach(context.Background(), "user-1")
	defer e.Detach(tab1)
	tab2 := e.Attach(context.Background(), "user-1")
	defer e.Detach(tab2)
	// Drain the attach-time snapshots. Each attach pushes to every session
	// of the user, so the first tab has two pending payloads.
	<-tab1.Send
	<-tab1.Send
	<-tab2.Send

	feed = append(feed, models.Notification{NotificationID: "n2", UserID: "user-1", Read: false})
	e.Refresh(context.Background(), "user-1")

	for _, tab := range []*hub.Client{tab1, tab2} {
		snap := receiveSnapshot(t, tab)
		assert.Len(t, snap.Notifications, 2)
		assert.Equal(t, 2, snap.UnreadCount)
	}
}

func TestRefreshSkipsDisconnectedUser(t *testing.T) {
	st := fakeNotificationStore{listFn: func(context.Context, string, int) ([]models.Notification, error) {
		t.Fatal("store must not be read for a user with no sessions")
		return nil, nil
	}}
	e := NewEngine(st, hub.New(), 20, nil)
	e.Refresh(context.Background(), "user-1")
}

func TestCancelledFetchIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st := fakeNotificationStore{listFn: func(context.Context, string, int) ([]models.Notification, error) {
		// Simulate a response arriving after the session started tearing down.
		cancel()
		return []models.Notification{{NotificationID: "n1"}}, nil
	}}
	e := NewEngine(st, hub.New(), 20, nil)

	client := e.Attach(ctx, "user-1")
	defer e.Detach(client)
	assert.Empty(t, client.Send, "late response must not be applied")
}

func TestDetachAfterRefreshDoesNotPanic(t *testing.T) {
	st := fakeNotificationStore{listFn: func(context.Context, string, int) ([]models.Notification, error) {
		return nil, nil
	}}
	e := NewEngine(st, hub.New(), 20, nil)

	client := e.Attach(context.Background(), "user-1")
	e.Detach(client)
	e.Detach(client)
	e.Refresh(context.Background(), "user-1")
}
