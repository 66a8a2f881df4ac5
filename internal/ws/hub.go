package ws

import (
	"encoding/json"
	"log"
	"sync"

	"messaging-service/internal/models"
)

// Hub maintains the live broadcast groups: one per joined conversation,
// one personal group per participant, plus the set of all connections
// for presence fan-out. Delivery is fire-and-forget; a slow client's
// buffer overflowing drops the event rather than blocking the sender
// (durable state is recoverable through a history fetch).
type Hub struct {
	mu            sync.RWMutex
	clients       map[*Client]bool
	personal      map[string]map[*Client]bool // participant key → connections
	conversations map[string]map[*Client]bool // conversation id → connections
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		personal:      make(map[string]map[*Client]bool),
		conversations: make(map[string]map[*Client]bool),
	}
}

// Register adds a connection and joins it to its personal group.
func (h *Hub) Register(c *Client) {
	key := c.identity.Key()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if _, ok := h.personal[key]; !ok {
		h.personal[key] = make(map[*Client]bool)
	}
	h.personal[key][c] = true
}

// Unregister removes the connection from every group and closes its
// send channel. No-op if the connection was never registered.
func (h *Hub) Unregister(c *Client) {
	key := c.identity.Key()
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if conns, ok := h.personal[key]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.personal, key)
		}
	}
	for conversationID := range c.joined {
		if conns, ok := h.conversations[conversationID]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.conversations, conversationID)
			}
		}
	}
	c.closeSend()
}

// JoinConversation adds the connection to a conversation's group.
func (h *Hub) JoinConversation(conversationID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conversations[conversationID]; !ok {
		h.conversations[conversationID] = make(map[*Client]bool)
	}
	h.conversations[conversationID][c] = true
	c.joined[conversationID] = struct{}{}
}

// LeaveConversation removes the connection from the group.
func (h *Hub) LeaveConversation(conversationID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.conversations[conversationID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.conversations, conversationID)
		}
	}
	delete(c.joined, conversationID)
}

// IsJoined reports whether the connection has joined the conversation.
func (h *Hub) IsJoined(conversationID string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.joined[conversationID]
	return ok
}

// BroadcastToConversation sends an event to the conversation's group,
// optionally excluding the originating connection.
func (h *Hub) BroadcastToConversation(conversationID string, event *Event, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conversations[conversationID] {
		if c == exclude {
			continue
		}
		c.enqueue(data)
	}
}

// BroadcastToParticipant sends an event to every connection in the
// participant's personal group.
func (h *Hub) BroadcastToParticipant(p models.ParticipantRef, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.personal[p.Key()] {
		c.enqueue(data)
	}
}

// BroadcastAll sends an event to every live connection.
func (h *Hub) BroadcastAll(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.enqueue(data)
	}
}
