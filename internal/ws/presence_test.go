package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

func TestPresenceRegisterAndUnregister(t *testing.T) {
	p := NewMemoryPresence()
	alice := models.ParticipantRef{ID: "1", Role: models.RoleUser}

	p.Register("conn-1", alice)
	assert.True(t, p.IsOnline(alice))

	ref, wentOffline := p.Unregister("conn-1")
	assert.Equal(t, alice, ref)
	assert.True(t, wentOffline)
	assert.False(t, p.IsOnline(alice))
}

func TestPresenceLastConnectionWins(t *testing.T) {
	p := NewMemoryPresence()
	alice := models.ParticipantRef{ID: "1", Role: models.RoleUser}

	p.Register("conn-old", alice)
	p.Register("conn-new", alice)

	// Tearing down the superseded connection must not take the
	// participant offline.
	ref, wentOffline := p.Unregister("conn-old")
	assert.Equal(t, alice, ref)
	assert.False(t, wentOffline)
	assert.True(t, p.IsOnline(alice))

	_, wentOffline = p.Unregister("conn-new")
	assert.True(t, wentOffline)
	assert.False(t, p.IsOnline(alice))
}

func TestPresenceUnregisterUnknownConn(t *testing.T) {
	p := NewMemoryPresence()

	ref, wentOffline := p.Unregister("nope")
	assert.Equal(t, models.ParticipantRef{}, ref)
	assert.False(t, wentOffline)
}

func TestPresenceListOnline(t *testing.T) {
	p := NewMemoryPresence()
	alice := models.ParticipantRef{ID: "1", Role: models.RoleUser}
	bob := models.ParticipantRef{ID: "2", Role: models.RoleAdmin}

	p.Register("conn-a", alice)
	p.Register("conn-b", bob)

	online := p.ListOnline()
	require.Len(t, online, 2)
	assert.Contains(t, online, alice)
	assert.Contains(t, online, bob)

	p.Unregister("conn-a")
	online = p.ListOnline()
	require.Len(t, online, 1)
	assert.Equal(t, bob, online[0])
}
