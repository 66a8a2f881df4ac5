package models

import "time"

// Conversation is a durable 1:1 channel between exactly two participants.
type Conversation struct {
	ID            string    `db:"id" json:"id"`
	PairKey       string    `db:"pair_key" json:"-"`
	LastMessageID *string   `db:"last_message_id" json:"last_message_id,omitempty"`
	LastActivity  time.Time `db:"last_activity" json:"last_activity"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	Participants []ConversationParticipant `json:"participants,omitempty"`
}

// ConversationParticipant is one side of a conversation with its
// rolling unread state.
type ConversationParticipant struct {
	ConversationID  string    `db:"conversation_id" json:"-"`
	ParticipantID   string    `db:"participant_id" json:"participant_id"`
	ParticipantRole Role      `db:"participant_role" json:"participant_role"`
	UnreadCount     int       `db:"unread_count" json:"unread_count"`
	LastSeenAt      time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// Ref returns the participant's reference.
func (cp ConversationParticipant) Ref() ParticipantRef {
	return ParticipantRef{ID: cp.ParticipantID, Role: cp.ParticipantRole}
}

// ConversationSummary is the "my conversations" list view for one user.
type ConversationSummary struct {
	ConversationID string         `json:"conversation_id"`
	Other          ParticipantRef `json:"other"`
	OtherUsername  string         `json:"other_username,omitempty"`
	UnreadCount    int            `json:"unread_count"`
	LastActivity   time.Time      `json:"last_activity"`
	LastMessage    *Message       `json:"last_message,omitempty"`
}

// PairKey builds the canonical key for an unordered participant pair,
// so that lookups between A and B resolve to the same conversation
// regardless of which side asks.
func PairKey(a, b ParticipantRef) string {
	ka, kb := a.Key(), b.Key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return ka + "|" + kb
}
