package ws

import (
	"sync"
	"time"

	"messaging-service/internal/models"
)

// PresenceRegistry is the authoritative in-process record of which
// connection belongs to which participant. Losing a presence broadcast
// is a staleness problem, not a correctness one, so implementations
// only need to answer truthfully about their own process.
type PresenceRegistry interface {
	// Register inserts or overwrites the mapping. A participant holds at
	// most one connection; the most recent registration wins.
	Register(connID string, p models.ParticipantRef)
	// Unregister removes both directions of the mapping. Reports the
	// participant and whether they went offline: removing a stale
	// connection that has since been superseded does not take the
	// participant offline.
	Unregister(connID string) (models.ParticipantRef, bool)
	IsOnline(p models.ParticipantRef) bool
	ListOnline() []models.ParticipantRef
}

type presenceEntry struct {
	ref         models.ParticipantRef
	connectedAt time.Time
}

// MemoryPresence is the process-local PresenceRegistry.
type MemoryPresence struct {
	mu            sync.RWMutex
	byConn        map[string]presenceEntry
	byParticipant map[string]string // participant key → conn id
}

// NewMemoryPresence creates an empty registry.
func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		byConn:        make(map[string]presenceEntry),
		byParticipant: make(map[string]string),
	}
}

// Register inserts or overwrites the mapping; idempotent per connection.
func (m *MemoryPresence) Register(connID string, p models.ParticipantRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byConn[connID] = presenceEntry{ref: p, connectedAt: time.Now()}
	m.byParticipant[p.Key()] = connID
}

// Unregister removes the connection. No-op if absent.
func (m *MemoryPresence) Unregister(connID string) (models.ParticipantRef, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.byConn[connID]
	if !ok {
		return models.ParticipantRef{}, false
	}
	delete(m.byConn, connID)
	if m.byParticipant[entry.ref.Key()] == connID {
		delete(m.byParticipant, entry.ref.Key())
		return entry.ref, true
	}
	// A newer connection owns the participant entry now.
	return entry.ref, false
}

// IsOnline reports whether the participant has a live connection.
func (m *MemoryPresence) IsOnline(p models.ParticipantRef) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byParticipant[p.Key()]
	return ok
}

// ListOnline snapshots the online participants. The snapshot may be
// stale the instant it is returned.
func (m *MemoryPresence) ListOnline() []models.ParticipantRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]models.ParticipantRef, 0, len(m.byParticipant))
	for _, connID := range m.byParticipant {
		if entry, ok := m.byConn[connID]; ok {
			result = append(result, entry.ref)
		}
	}
	return result
}
