package ws

import (
	"log"
	"time"

	"messaging-service/internal/models"
)

// HubNotifier implements messaging.Notifier on top of the Hub, keeping
// the delivery protocol free of transport details.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier constructs a HubNotifier.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// NewMessage fans a persisted message out to the conversation group.
// The sender's own connections receive it too if they joined the group.
func (n *HubNotifier) NewMessage(msg models.Message) {
	evt, err := NewEvent(EventNewMessage, MessageEventPayload{Message: msg, ConversationID: msg.ConversationID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, nil)
}

// MessageNotification reaches the receiver's personal group even when
// they have not joined the conversation group.
func (n *HubNotifier) MessageNotification(msg models.Message, senderName string) {
	evt, err := NewEvent(EventMessageNotification, MessageNotificationPayload{
		Message:        msg,
		ConversationID: msg.ConversationID,
		Sender:         SenderInfo{ID: msg.SenderID, Role: msg.SenderRole, Username: senderName},
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToParticipant(msg.Receiver(), evt)
}

// MessagesRead tells the conversation group which messages transitioned.
func (n *HubNotifier) MessagesRead(conversationID string, messageIDs []string, reader models.ParticipantRef, readAt time.Time) {
	evt, err := NewEvent(EventMessagesRead, MessagesReadPayload{
		ConversationID: conversationID,
		MessageIDs:     messageIDs,
		ReadBy:         reader,
		ReadAt:         readAt,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}

// MessageDeleted notifies the conversation group of a soft delete.
func (n *HubNotifier) MessageDeleted(conversationID, messageID string) {
	evt, err := NewEvent(EventMessageDeleted, MessageDeletedPayload{ConversationID: conversationID, MessageID: messageID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}
