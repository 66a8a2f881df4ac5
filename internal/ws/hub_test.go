package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

func newTestClient(id string, role models.Role) *Client {
	return &Client{
		identity: models.Identity{ParticipantRef: models.ParticipantRef{ID: id, Role: role}},
		joined:   make(map[string]struct{}),
		send:     make(chan []byte, sendBufSize),
	}
}

func receivedEvent(t *testing.T, c *Client) *Event {
	t.Helper()
	select {
	case data := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return &evt
	default:
		return nil
	}
}

func TestHubConversationBroadcast(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("1", models.RoleUser)
	bob := newTestClient("2", models.RoleUser)
	outsider := newTestClient("3", models.RoleUser)

	hub.Register(alice)
	hub.Register(bob)
	hub.Register(outsider)
	hub.JoinConversation("conv-1", alice)
	hub.JoinConversation("conv-1", bob)

	evt, err := NewEvent(EventNewMessage, MessageEventPayload{ConversationID: "conv-1"})
	require.NoError(t, err)
	hub.BroadcastToConversation("conv-1", evt, nil)

	require.NotNil(t, receivedEvent(t, alice))
	require.NotNil(t, receivedEvent(t, bob))
	assert.Nil(t, receivedEvent(t, outsider))
}

func TestHubBroadcastExcludesOriginator(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("1", models.RoleUser)
	bob := newTestClient("2", models.RoleUser)

	hub.Register(alice)
	hub.Register(bob)
	hub.JoinConversation("conv-1", alice)
	hub.JoinConversation("conv-1", bob)

	evt, err := NewEvent(EventUserTyping, TypingPayload{ConversationID: "conv-1", UserID: "1"})
	require.NoError(t, err)
	hub.BroadcastToConversation("conv-1", evt, alice)

	assert.Nil(t, receivedEvent(t, alice))
	got := receivedEvent(t, bob)
	require.NotNil(t, got)
	assert.Equal(t, EventUserTyping, got.Type)
}

func TestHubPersonalGroupSpansConnections(t *testing.T) {
	hub := NewHub()
	first := newTestClient("1", models.RoleUser)
	second := newTestClient("1", models.RoleUser)
	other := newTestClient("2", models.RoleUser)

	hub.Register(first)
	hub.Register(second)
	hub.Register(other)

	evt, err := NewEvent(EventMessageNotification, MessageNotificationPayload{ConversationID: "conv-1"})
	require.NoError(t, err)
	hub.BroadcastToParticipant(models.ParticipantRef{ID: "1", Role: models.RoleUser}, evt)

	require.NotNil(t, receivedEvent(t, first))
	require.NotNil(t, receivedEvent(t, second))
	assert.Nil(t, receivedEvent(t, other))
}

func TestHubSameIDDifferentRoleIsDifferentParticipant(t *testing.T) {
	hub := NewHub()
	asUser := newTestClient("1", models.RoleUser)
	asAdmin := newTestClient("1", models.RoleAdmin)

	hub.Register(asUser)
	hub.Register(asAdmin)

	evt, err := NewEvent(EventMessageNotification, MessageNotificationPayload{ConversationID: "conv-1"})
	require.NoError(t, err)
	hub.BroadcastToParticipant(models.ParticipantRef{ID: "1", Role: models.RoleAdmin}, evt)

	assert.Nil(t, receivedEvent(t, asUser))
	require.NotNil(t, receivedEvent(t, asAdmin))
}

func TestHubLeaveConversation(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("1", models.RoleUser)

	hub.Register(alice)
	hub.JoinConversation("conv-1", alice)
	require.True(t, hub.IsJoined("conv-1", alice))

	hub.LeaveConversation("conv-1", alice)
	assert.False(t, hub.IsJoined("conv-1", alice))

	evt, err := NewEvent(EventNewMessage, MessageEventPayload{ConversationID: "conv-1"})
	require.NoError(t, err)
	hub.BroadcastToConversation("conv-1", evt, nil)
	assert.Nil(t, receivedEvent(t, alice))
}

func TestHubUnregisterRemovesFromAllGroups(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("1", models.RoleUser)
	bob := newTestClient("2", models.RoleUser)

	hub.Register(alice)
	hub.Register(bob)
	hub.JoinConversation("conv-1", alice)
	hub.JoinConversation("conv-1", bob)

	hub.Unregister(alice)

	evt, err := NewEvent(EventUserStatusChange, StatusChangePayload{UserID: "2", Status: "online"})
	require.NoError(t, err)
	hub.BroadcastAll(evt)
	require.NotNil(t, receivedEvent(t, bob))

	// The closed send channel yields a zero value, not a broadcast.
	data, ok := <-alice.send
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestHubUnregisterTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("1", models.RoleUser)

	hub.Register(alice)
	hub.Unregister(alice)
	hub.Unregister(alice)
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()
	alice := newTestClient("1", models.RoleUser)
	bob := newTestClient("2", models.RoleAdmin)

	hub.Register(alice)
	hub.Register(bob)

	evt, err := NewEvent(EventUserStatusChange, StatusChangePayload{UserID: "1", Status: "offline"})
	require.NoError(t, err)
	hub.BroadcastAll(evt)

	for _, c := range []*Client{alice, bob} {
		got := receivedEvent(t, c)
		require.NotNil(t, got)
		assert.Equal(t, EventUserStatusChange, got.Type)
	}
}
