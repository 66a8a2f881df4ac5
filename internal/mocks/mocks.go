package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/auth"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGet(ctx context.Context, a, b models.ParticipantRef) (models.Conversation, error) {
	args := m.Called(ctx, a, b)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID string) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Participants(ctx context.Context, conversationID string) ([]models.ConversationParticipant, error) {
	args := m.Called(ctx, conversationID)
	var list []models.ConversationParticipant
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationParticipant)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID string, p models.ParticipantRef) (bool, error) {
	args := m.Called(ctx, conversationID, p)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) ListForParticipant(ctx context.Context, p models.ParticipantRef) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, p)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) RecordMessage(ctx context.Context, conversationID, messageID string, receiver models.ParticipantRef, at time.Time) error {
	args := m.Called(ctx, conversationID, messageID, receiver, at)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) ResetUnread(ctx context.Context, conversationID string, p models.ParticipantRef, at time.Time) error {
	args := m.Called(ctx, conversationID, p, at)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) TotalUnread(ctx context.Context, p models.ParticipantRef) (int, error) {
	args := m.Called(ctx, p)
	return args.Int(0), args.Error(1)
}

func (m *ConversationRepositoryMock) Deactivate(ctx context.Context, conversationID string) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, conversationID string, sender, receiver models.ParticipantRef, content string, messageType models.MessageType) (models.Message, error) {
	args := m.Called(ctx, conversationID, sender, receiver, content, messageType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, conversationID string, messageIDs []string, reader models.ParticipantRef, at time.Time) ([]string, error) {
	args := m.Called(ctx, conversationID, messageIDs, reader, at)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, conversationID string, reader models.ParticipantRef, at time.Time) ([]string, error) {
	args := m.Called(ctx, conversationID, reader, at)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID string, sender models.ParticipantRef) error {
	args := m.Called(ctx, messageID, sender)
	return args.Error(0)
}

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) Exists(ctx context.Context, ref models.ParticipantRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepositoryMock) Get(ctx context.Context, ref models.ParticipantRef) (models.Participant, error) {
	args := m.Called(ctx, ref)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantRepositoryMock) BulkGet(ctx context.Context, refs []models.ParticipantRef) ([]models.Participant, error) {
	args := m.Called(ctx, refs)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NewMessage(msg models.Message) {
	m.Called(msg)
}

func (m *NotifierMock) MessageNotification(msg models.Message, senderName string) {
	m.Called(msg, senderName)
}

func (m *NotifierMock) MessagesRead(conversationID string, messageIDs []string, reader models.ParticipantRef, readAt time.Time) {
	m.Called(conversationID, messageIDs, reader, readAt)
}

func (m *NotifierMock) MessageDeleted(conversationID, messageID string) {
	m.Called(conversationID, messageID)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, token string) (models.Identity, error) {
	args := m.Called(ctx, token)
	var identity models.Identity
	if val := args.Get(0); val != nil {
		identity = val.(models.Identity)
	}
	return identity, args.Error(1)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ParticipantRepository = (*ParticipantRepositoryMock)(nil)
var _ auth.Verifier = (*VerifierMock)(nil)
var _ interface {
	NewMessage(models.Message)
	MessageNotification(models.Message, string)
	MessagesRead(string, []string, models.ParticipantRef, time.Time)
	MessageDeleted(string, string)
} = (*NotifierMock)(nil)
