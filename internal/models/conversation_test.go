package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeySymmetric(t *testing.T) {
	a := ParticipantRef{ID: "42", Role: RoleUser}
	b := ParticipantRef{ID: "7", Role: RoleAdmin}

	require.Equal(t, PairKey(a, b), PairKey(b, a))
}

func TestPairKeyDistinguishesRoles(t *testing.T) {
	asUser := ParticipantRef{ID: "1", Role: RoleUser}
	asAdmin := ParticipantRef{ID: "1", Role: RoleAdmin}
	other := ParticipantRef{ID: "2", Role: RoleUser}

	assert.NotEqual(t, PairKey(asUser, other), PairKey(asAdmin, other))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("bot").Valid())
	assert.False(t, Role("").Valid())
}

func TestParticipantRefKey(t *testing.T) {
	ref := ParticipantRef{ID: "15", Role: RoleAdmin}
	assert.Equal(t, "admin:15", ref.Key())
}
