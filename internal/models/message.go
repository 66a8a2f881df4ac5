package models

import "time"

// MessageType tags the payload kind. Only text is produced today.
type MessageType string

const MessageTypeText MessageType = "text"

// Message is one immutable directed communication within a conversation.
// Read state is the only field that ever changes, and only false→true.
type Message struct {
	ID             string      `db:"id" json:"id"`
	ConversationID string      `db:"conversation_id" json:"conversation_id"`
	SenderID       string      `db:"sender_id" json:"sender_id"`
	SenderRole     Role        `db:"sender_role" json:"sender_role"`
	ReceiverID     string      `db:"receiver_id" json:"receiver_id"`
	ReceiverRole   Role        `db:"receiver_role" json:"receiver_role"`
	Content        string      `db:"content" json:"content"`
	MessageType    MessageType `db:"message_type" json:"message_type"`
	IsRead         bool        `db:"is_read" json:"is_read"`
	ReadAt         *time.Time  `db:"read_at" json:"read_at,omitempty"`
	IsDeleted      bool        `db:"is_deleted" json:"-"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Sender returns the sending participant's reference.
func (m Message) Sender() ParticipantRef {
	return ParticipantRef{ID: m.SenderID, Role: m.SenderRole}
}

// Receiver returns the receiving participant's reference.
func (m Message) Receiver() ParticipantRef {
	return ParticipantRef{ID: m.ReceiverID, Role: m.ReceiverRole}
}
