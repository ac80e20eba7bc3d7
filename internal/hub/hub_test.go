package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newClient(id, userID string) *Client {
	return &Client{ID: id, UserID: userID, Send: make(chan []byte, 4)}
}

func TestSendToUserFansOutToAllSessions(t *testing.T) {
	h := New()
	tab1 := newClient("c1", "user-1")
	tab2 := newClient("c2", "user-1")
	other := newClient("c3", "user-2")
	h.Register(tab1)
	h.Register(tab2)
	h.Register(other)

	sent := h.SendToUser("user-1", []byte("hello"))
	assert.Equal(t, 2, sent)
	assert.Equal(t, []byte("hello"), <-tab1.Send)
	assert.Equal(t, []byte("hello"), <-tab2.Send)
	assert.Empty(t, other.Send)
}

func TestSendToUserWithNoSessions(t *testing.T) {
	h := New()
	assert.Equal(t, 0, h.SendToUser("user-1", []byte("hello")))
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	h := New()
	slow := &Client{ID: "c1", UserID: "user-1", Send: make(chan []byte)}
	h.Register(slow)

	// Nobody is draining slow.Send; the send must return immediately.
	h.SendToUser("user-1", []byte("dropped"))
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := New()
	c := newClient("c1", "user-1")
	h.Register(c)

	h.Unregister(c)
	assert.False(t, h.HasUser("user-1"))
	_, open := <-c.Send
	assert.False(t, open, "send channel should be closed")

	// A second unregister must not double-close.
	h.Unregister(c)
}

func TestHasUser(t *testing.T) {
	h := New()
	assert.False(t, h.HasUser("user-1"))

	c := newClient("c1", "user-1")
	h.Register(c)
	assert.True(t, h.HasUser("user-1"))
	assert.False(t, h.HasUser("user-2"))

	h.Unregister(c)
	assert.False(t, h.HasUser("user-1"))
}

func TestConcurrentRegisterAndSend(t *testing.T) {
	h := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(id byte) {
			defer wg.Done()
			c := &Client{ID: string(rune('a' + id)), UserID: "user-1", Send: make(chan []byte, 64)}
			h.Register(c)
		}(byte(i))
		go func() {
			defer wg.Done()
			h.SendToUser("user-1", []byte("ping"))
		}()
	}
	wg.Wait()
	assert.True(t, h.HasUser("user-1"))
}
