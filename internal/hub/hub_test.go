package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndBroadcast(t *testing.T) {
	h := NewHub()

	client := make(Client, 1)
	h.Subscribe(42, client)

	h.Broadcast(42, Event{Type: "chat_message", Payload: map[string]string{"text": "hello"}})

	select {
	case msg := <-client:
		assert.Contains(t, string(msg), `"type":"chat_message"`)
		assert.Contains(t, string(msg), "hello")
	default:
		t.Fatal("expected a broadcast message")
	}
}

func TestBroadcastReachesOnlyTheSession(t *testing.T) {
	h := NewHub()

	inSession := make(Client, 1)
	elsewhere := make(Client, 1)
	h.Subscribe(1, inSession)
	h.Subscribe(2, elsewhere)

	h.Broadcast(1, Event{Type: "chat_message"})

	assert.Len(t, inSession, 1)
	assert.Len(t, elsewhere, 0)
}

func TestUnsubscribeClosesClient(t *testing.T) {
	h := NewHub()

	client := make(Client, 1)
	h.Subscribe(7, client)
	h.Unsubscribe(7, client)

	_, open := <-client
	require.False(t, open, "unsubscribed client channel should be closed")

	// Unsubscribing twice must not panic or close again
	h.Unsubscribe(7, client)

	// Broadcasting to an empty session is a no-op
	h.Broadcast(7, Event{Type: "chat_message"})
}

func TestBroadcastSkipsSlowClients(t *testing.T) {
	h := NewHub()

	slow := make(Client) // unbuffered and nobody reading
	fast := make(Client, 2)
	h.Subscribe(9, slow)
	h.Subscribe(9, fast)

	// Must not block even though the slow client never drains
	h.Broadcast(9, Event{Type: "chat_message"})
	h.Broadcast(9, Event{Type: "chat_message"})

	assert.Len(t, fast, 2)
}
