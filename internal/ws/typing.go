package ws

import (
	"sync"

	"messaging-service/internal/models"
)

// TypingIndicators tracks who is composing a message, per conversation.
// Entries are ephemeral and never persisted.
type TypingIndicators interface {
	Start(conversationID string, p models.ParticipantRef, displayName string)
	Stop(conversationID string, p models.ParticipantRef)
	// ClearParticipant drops the participant from every conversation and
	// returns the conversation ids that were affected, so the caller can
	// broadcast stopped-typing on disconnect.
	ClearParticipant(p models.ParticipantRef) []string
	List(conversationID string) []TypingEntry
}

// TypingEntry is one participant currently typing in a conversation.
type TypingEntry struct {
	Ref  models.ParticipantRef
	Name string
}

// MemoryTyping is the process-local TypingIndicators implementation.
type MemoryTyping struct {
	mu            sync.RWMutex
	conversations map[string]map[string]TypingEntry // conversation id → participant key → entry
}

// NewMemoryTyping creates an empty set.
func NewMemoryTyping() *MemoryTyping {
	return &MemoryTyping{conversations: make(map[string]map[string]TypingEntry)}
}

// Start flags the participant as typing.
func (t *MemoryTyping) Start(conversationID string, p models.ParticipantRef, displayName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries, ok := t.conversations[conversationID]
	if !ok {
		entries = make(map[string]TypingEntry)
		t.conversations[conversationID] = entries
	}
	entries[p.Key()] = TypingEntry{Ref: p, Name: displayName}
}

// Stop removes the flag. No-op if absent.
func (t *MemoryTyping) Stop(conversationID string, p models.ParticipantRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entries, ok := t.conversations[conversationID]; ok {
		delete(entries, p.Key())
		if len(entries) == 0 {
			delete(t.conversations, conversationID)
		}
	}
}

// ClearParticipant removes the participant everywhere.
func (t *MemoryTyping) ClearParticipant(p models.ParticipantRef) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var cleared []string
	key := p.Key()
	for conversationID, entries := range t.conversations {
		if _, ok := entries[key]; ok {
			delete(entries, key)
			cleared = append(cleared, conversationID)
			if len(entries) == 0 {
				delete(t.conversations, conversationID)
			}
		}
	}
	return cleared
}

// List snapshots who is typing in the conversation.
func (t *MemoryTyping) List(conversationID string) []TypingEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.conversations[conversationID]
	result := make([]TypingEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result
}
