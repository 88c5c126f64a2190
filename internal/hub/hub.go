package hub

import (
	"encoding/json"
	"sync"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single subscriber (a user watching a session's chat).
// It's essentially a channel that the SSE handler will listen to.
type Client chan []byte

// Hub manages subscribers grouped by game session.
type Hub struct {
	sessions map[uint]map[Client]bool
	mu       sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uint]map[Client]bool),
	}
}

// Subscribe adds a new client to a specific session.
func (h *Hub) Subscribe(sessionID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[Client]bool)
	}
	h.sessions[sessionID][client] = true
}

// Unsubscribe removes a client from a session.
func (h *Hub) Unsubscribe(sessionID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.sessions[sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.sessions, sessionID)
			}
		}
	}
}

// Broadcast sends an event to all clients subscribed to a session.
func (h *Hub) Broadcast(sessionID uint, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.sessions[sessionID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		return
	}

	for client := range clients {
		// Use a non-blocking send to prevent a slow client from blocking the hub.
		select {
		case client <- messageBytes:
		default:
			// Client channel is full; the unsubscribe logic cleans this up eventually.
		}
	}
}
