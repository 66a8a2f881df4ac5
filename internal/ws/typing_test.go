package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

func TestTypingStartAndStop(t *testing.T) {
	typing := NewMemoryTyping()
	alice := models.ParticipantRef{ID: "1", Role: models.RoleUser}

	typing.Start("conv-1", alice, "alice")

	entries := typing.List("conv-1")
	require.Len(t, entries, 1)
	assert.Equal(t, alice, entries[0].Ref)
	assert.Equal(t, "alice", entries[0].Name)

	typing.Stop("conv-1", alice)
	assert.Empty(t, typing.List("conv-1"))
}

func TestTypingStartIsIdempotent(t *testing.T) {
	typing := NewMemoryTyping()
	alice := models.ParticipantRef{ID: "1", Role: models.RoleUser}

	typing.Start("conv-1", alice, "alice")
	typing.Start("conv-1", alice, "alice")

	assert.Len(t, typing.List("conv-1"), 1)
}

func TestTypingStopUnknownIsNoop(t *testing.T) {
	typing := NewMemoryTyping()
	typing.Stop("conv-1", models.ParticipantRef{ID: "9", Role: models.RoleUser})
	assert.Empty(t, typing.List("conv-1"))
}

func TestTypingClearParticipant(t *testing.T) {
	typing := NewMemoryTyping()
	alice := models.ParticipantRef{ID: "1", Role: models.RoleUser}
	bob := models.ParticipantRef{ID: "2", Role: models.RoleUser}

	typing.Start("conv-1", alice, "alice")
	typing.Start("conv-2", alice, "alice")
	typing.Start("conv-2", bob, "bob")

	cleared := typing.ClearParticipant(alice)
	assert.ElementsMatch(t, []string{"conv-1", "conv-2"}, cleared)

	assert.Empty(t, typing.List("conv-1"))
	entries := typing.List("conv-2")
	require.Len(t, entries, 1)
	assert.Equal(t, bob, entries[0].Ref)

	assert.Empty(t, typing.ClearParticipant(alice))
}
