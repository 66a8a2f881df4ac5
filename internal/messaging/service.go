package messaging

import (
	"context"
	"strings"
	"time"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// MaxContentLength bounds message bodies.
const MaxContentLength = 4096

const defaultHistoryLimit = 50
const maxHistoryLimit = 200

// Notifier is the outbound fan-out port. Implementations broadcast to
// live connections; emission is fire-and-forget and must not block.
type Notifier interface {
	NewMessage(msg models.Message)
	MessageNotification(msg models.Message, senderName string)
	MessagesRead(conversationID string, messageIDs []string, reader models.ParticipantRef, readAt time.Time)
	MessageDeleted(conversationID, messageID string)
}

// Service implements the message delivery protocol: the ordered steps
// that turn a send into a durable record, an unread mutation, and a
// fan-out of events.
type Service struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	participants  repositories.ParticipantRepository
	notifier      Notifier
}

// NewService builds a Service.
func NewService(conversations repositories.ConversationRepository, messages repositories.MessageRepository, participants repositories.ParticipantRepository, notifier Notifier) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		participants:  participants,
		notifier:      notifier,
	}
}

// Send validates the receiver, finds or creates the conversation,
// persists the message, updates the conversation's rolling state, and
// fans out the conversation broadcast and the receiver notification.
// The caller acknowledges the originator afterwards, preserving the
// broadcast-before-ack ordering.
func (s *Service) Send(ctx context.Context, sender models.Identity, receiver models.ParticipantRef, content string, messageType models.MessageType) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > MaxContentLength {
		return models.Message{}, ErrInvalidContent
	}
	if !receiver.Role.Valid() {
		return models.Message{}, ErrReceiverNotFound
	}
	if sender.ParticipantRef == receiver {
		return models.Message{}, ErrSelfMessage
	}
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	exists, err := s.participants.Exists(ctx, receiver)
	if err != nil {
		return models.Message{}, err
	}
	if !exists {
		return models.Message{}, ErrReceiverNotFound
	}

	conv, err := s.conversations.CreateOrGet(ctx, sender.ParticipantRef, receiver)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.Create(ctx, conv.ID, sender.ParticipantRef, receiver, content, messageType)
	if err != nil {
		return models.Message{}, err
	}

	if err := s.conversations.RecordMessage(ctx, conv.ID, msg.ID, receiver, msg.CreatedAt); err != nil {
		return models.Message{}, err
	}

	observability.IncMessageSent()
	if s.notifier != nil {
		s.notifier.NewMessage(msg)
		s.notifier.MessageNotification(msg, sender.Username)
	}
	return msg, nil
}

// MarkRead transitions the subset of the given messages that are
// addressed to the reader and still unread, then coarsely resets the
// reader's unread counter to zero. The reset tolerates an incomplete
// id set on purpose. Returns the transitioned ids and the read time.
func (s *Service) MarkRead(ctx context.Context, reader models.ParticipantRef, conversationID string, messageIDs []string) ([]string, time.Time, error) {
	if err := s.requireParticipant(ctx, conversationID, reader); err != nil {
		return nil, time.Time{}, err
	}

	now := time.Now().UTC()
	ids, err := s.messages.MarkRead(ctx, conversationID, messageIDs, reader, now)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := s.conversations.ResetUnread(ctx, conversationID, reader, now); err != nil {
		return nil, time.Time{}, err
	}

	observability.AddMessagesRead(len(ids))
	if s.notifier != nil {
		s.notifier.MessagesRead(conversationID, ids, reader, now)
	}
	return ids, now, nil
}

// History returns a page of the conversation ordered by creation time
// and, as a side effect of retrieval, marks everything addressed to
// the requester as read and resets their unread counter.
func (s *Service) History(ctx context.Context, reader models.ParticipantRef, conversationID string, limit, offset int) ([]models.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, reader); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ids, err := s.messages.MarkConversationRead(ctx, conversationID, reader, now)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.ResetUnread(ctx, conversationID, reader, now); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		observability.AddMessagesRead(len(ids))
		if s.notifier != nil {
			s.notifier.MessagesRead(conversationID, ids, reader, now)
		}
	}
	return msgs, nil
}

// StartConversation returns the conversation with the other
// participant, creating it when absent. First message is not required.
func (s *Service) StartConversation(ctx context.Context, initiator models.Identity, other models.ParticipantRef) (models.Conversation, error) {
	if initiator.ParticipantRef == other {
		return models.Conversation{}, ErrSelfMessage
	}
	exists, err := s.participants.Exists(ctx, other)
	if err != nil {
		return models.Conversation{}, err
	}
	if !exists {
		return models.Conversation{}, ErrReceiverNotFound
	}
	return s.conversations.CreateOrGet(ctx, initiator.ParticipantRef, other)
}

// ListConversations returns the participant's conversations, newest
// activity first.
func (s *Service) ListConversations(ctx context.Context, p models.ParticipantRef) ([]models.ConversationSummary, error) {
	return s.conversations.ListForParticipant(ctx, p)
}

// TotalUnread returns the aggregate unread count across conversations.
func (s *Service) TotalUnread(ctx context.Context, p models.ParticipantRef) (int, error) {
	return s.conversations.TotalUnread(ctx, p)
}

// IsParticipant reports conversation membership; used by the gateway's
// join check.
func (s *Service) IsParticipant(ctx context.Context, conversationID string, p models.ParticipantRef) (bool, error) {
	return s.conversations.IsParticipant(ctx, conversationID, p)
}

// DeleteMessage soft-deletes a message (sender only) and notifies the
// conversation group.
func (s *Service) DeleteMessage(ctx context.Context, actor models.ParticipantRef, conversationID, messageID string) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ConversationID != conversationID {
		return repositories.ErrMessageNotFound
	}
	if msg.Sender() != actor {
		return ErrNotSender
	}
	if err := s.messages.SoftDelete(ctx, messageID, actor); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.MessageDeleted(conversationID, messageID)
	}
	return nil
}

func (s *Service) requireParticipant(ctx context.Context, conversationID string, p models.ParticipantRef) error {
	member, err := s.conversations.IsParticipant(ctx, conversationID, p)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotAParticipant
	}
	return nil
}
