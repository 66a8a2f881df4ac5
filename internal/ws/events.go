package ws

import (
	"encoding/json"
	"time"

	"messaging-service/internal/models"
)

// Client → server event types.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventMarkMessagesRead  = "mark_messages_read"
)

// Server → client event types.
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
	EventMessageSent         = "message_sent"
	EventMessagesRead        = "messages_read"
	EventMessageDeleted      = "message_deleted"
	EventUserTyping          = "user_typing"
	EventUserStoppedTyping   = "user_stopped_typing"
	EventUserStatusChange    = "user_status_change"
	EventMessageError        = "message_error"
)

// Event is the envelope for every message on the socket.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// NewEvent wraps a payload into a server→client event.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// --- Client → server payloads ---

type ConversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessagePayload struct {
	ReceiverID     string             `json:"receiver_id"`
	ReceiverRole   models.Role        `json:"receiver_role"`
	Content        string             `json:"content"`
	MessageType    models.MessageType `json:"message_type,omitempty"`
	ConversationID string             `json:"conversation_id,omitempty"`
}

type MarkReadPayload struct {
	ConversationID string   `json:"conversation_id"`
	MessageIDs     []string `json:"message_ids"`
}

// --- Server → client payloads ---

type MessageEventPayload struct {
	Message        models.Message `json:"message"`
	ConversationID string         `json:"conversation_id"`
}

type MessageNotificationPayload struct {
	Message        models.Message `json:"message"`
	ConversationID string         `json:"conversation_id"`
	Sender         SenderInfo     `json:"sender"`
}

type SenderInfo struct {
	ID       string      `json:"id"`
	Role     models.Role `json:"role"`
	Username string      `json:"username,omitempty"`
}

type MessagesReadPayload struct {
	ConversationID string                `json:"conversation_id"`
	MessageIDs     []string              `json:"message_ids"`
	ReadBy         models.ParticipantRef `json:"read_by"`
	ReadAt         time.Time             `json:"read_at"`
}

type MessageDeletedPayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

type TypingPayload struct {
	UserID         string      `json:"user_id"`
	Role           models.Role `json:"role"`
	Username       string      `json:"username,omitempty"`
	ConversationID string      `json:"conversation_id"`
}

type StatusChangePayload struct {
	UserID    string      `json:"user_id"`
	Role      models.Role `json:"role"`
	Status    string      `json:"status"` // "online" | "offline"
	Timestamp time.Time   `json:"timestamp"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
