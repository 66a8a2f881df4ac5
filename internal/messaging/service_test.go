package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

var (
	alice = models.Identity{ParticipantRef: models.ParticipantRef{ID: "1", Role: models.RoleUser}, Username: "alice"}
	bob   = models.ParticipantRef{ID: "2", Role: models.RoleUser}
)

func newTestService() (*Service, *mocks.ConversationRepositoryMock, *mocks.MessageRepositoryMock, *mocks.ParticipantRepositoryMock, *mocks.NotifierMock) {
	convRepo := new(mocks.ConversationRepositoryMock)
	msgRepo := new(mocks.MessageRepositoryMock)
	partRepo := new(mocks.ParticipantRepositoryMock)
	notifier := new(mocks.NotifierMock)
	return NewService(convRepo, msgRepo, partRepo, notifier), convRepo, msgRepo, partRepo, notifier
}

func TestSendFirstContactCreatesConversation(t *testing.T) {
	svc, convRepo, msgRepo, partRepo, notifier := newTestService()

	conv := models.Conversation{ID: "conv-1"}
	msg := models.Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		SenderID:       "1",
		SenderRole:     models.RoleUser,
		ReceiverID:     "2",
		ReceiverRole:   models.RoleUser,
		Content:        "hello",
		CreatedAt:      time.Now().UTC(),
	}

	partRepo.On("Exists", mock.Anything, bob).Return(true, nil).Once()
	convRepo.On("CreateOrGet", mock.Anything, alice.ParticipantRef, bob).Return(conv, nil).Once()
	msgRepo.On("Create", mock.Anything, "conv-1", alice.ParticipantRef, bob, "hello", models.MessageTypeText).Return(msg, nil).Once()
	convRepo.On("RecordMessage", mock.Anything, "conv-1", "msg-1", bob, msg.CreatedAt).Return(nil).Once()
	notifier.On("NewMessage", msg).Once()
	notifier.On("MessageNotification", msg, "alice").Once()

	got, err := svc.Send(context.Background(), alice, bob, "  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", got.ID)

	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	partRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSendReceiverNotFound(t *testing.T) {
	svc, _, _, partRepo, _ := newTestService()

	partRepo.On("Exists", mock.Anything, bob).Return(false, nil).Once()

	_, err := svc.Send(context.Background(), alice, bob, "hello", "")
	assert.ErrorIs(t, err, ErrReceiverNotFound)
	partRepo.AssertExpectations(t)
}

func TestSendUnknownRole(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Send(context.Background(), alice, models.ParticipantRef{ID: "2", Role: "bot"}, "hello", "")
	assert.ErrorIs(t, err, ErrReceiverNotFound)
}

func TestSendToSelf(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Send(context.Background(), alice, alice.ParticipantRef, "hello", "")
	assert.ErrorIs(t, err, ErrSelfMessage)
}

func TestSendInvalidContent(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Send(context.Background(), alice, bob, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = svc.Send(context.Background(), alice, bob, strings.Repeat("x", MaxContentLength+1), "")
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestSendStoreFailureReturnsError(t *testing.T) {
	svc, convRepo, msgRepo, partRepo, notifier := newTestService()

	partRepo.On("Exists", mock.Anything, bob).Return(true, nil).Once()
	convRepo.On("CreateOrGet", mock.Anything, alice.ParticipantRef, bob).Return(models.Conversation{ID: "conv-1"}, nil).Once()
	msgRepo.On("Create", mock.Anything, "conv-1", alice.ParticipantRef, bob, "hello", models.MessageTypeText).Return(models.Message{}, assert.AnError).Once()

	_, err := svc.Send(context.Background(), alice, bob, "hello", "")
	assert.Error(t, err)
	notifier.AssertNotCalled(t, "NewMessage", mock.Anything)
}

func TestMarkReadPartialSetResetsCounter(t *testing.T) {
	svc, convRepo, msgRepo, _, notifier := newTestService()

	requested := []string{"msg-1", "msg-2", "msg-3"}
	transitioned := []string{"msg-1", "msg-3"}

	convRepo.On("IsParticipant", mock.Anything, "conv-1", bob).Return(true, nil).Once()
	msgRepo.On("MarkRead", mock.Anything, "conv-1", requested, bob, mock.Anything).Return(transitioned, nil).Once()
	convRepo.On("ResetUnread", mock.Anything, "conv-1", bob, mock.Anything).Return(nil).Once()
	notifier.On("MessagesRead", "conv-1", transitioned, bob, mock.Anything).Once()

	ids, _, err := svc.MarkRead(context.Background(), bob, "conv-1", requested)
	require.NoError(t, err)
	assert.Equal(t, transitioned, ids)

	convRepo.AssertExpectations(t)
	msgRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestMarkReadRequiresMembership(t *testing.T) {
	svc, convRepo, _, _, _ := newTestService()

	convRepo.On("IsParticipant", mock.Anything, "conv-1", bob).Return(false, nil).Once()

	_, _, err := svc.MarkRead(context.Background(), bob, "conv-1", []string{"msg-1"})
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestHistoryImplicitlyMarksRead(t *testing.T) {
	svc, convRepo, msgRepo, _, notifier := newTestService()

	msgs := []models.Message{{ID: "msg-1", ConversationID: "conv-1"}}

	convRepo.On("IsParticipant", mock.Anything, "conv-1", bob).Return(true, nil).Once()
	msgRepo.On("ListForConversation", mock.Anything, "conv-1", 50, 0).Return(msgs, nil).Once()
	msgRepo.On("MarkConversationRead", mock.Anything, "conv-1", bob, mock.Anything).Return([]string{"msg-1"}, nil).Once()
	convRepo.On("ResetUnread", mock.Anything, "conv-1", bob, mock.Anything).Return(nil).Once()
	notifier.On("MessagesRead", "conv-1", []string{"msg-1"}, bob, mock.Anything).Once()

	got, err := svc.History(context.Background(), bob, "conv-1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, msgs, got)

	msgRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestHistoryNothingUnreadSkipsBroadcast(t *testing.T) {
	svc, convRepo, msgRepo, _, notifier := newTestService()

	convRepo.On("IsParticipant", mock.Anything, "conv-1", bob).Return(true, nil).Once()
	msgRepo.On("ListForConversation", mock.Anything, "conv-1", 200, 10).Return([]models.Message{}, nil).Once()
	msgRepo.On("MarkConversationRead", mock.Anything, "conv-1", bob, mock.Anything).Return([]string(nil), nil).Once()
	convRepo.On("ResetUnread", mock.Anything, "conv-1", bob, mock.Anything).Return(nil).Once()

	_, err := svc.History(context.Background(), bob, "conv-1", 500, 10)
	require.NoError(t, err)
	notifier.AssertNotCalled(t, "MessagesRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStartConversationValidatesOther(t *testing.T) {
	svc, convRepo, _, partRepo, _ := newTestService()

	_, err := svc.StartConversation(context.Background(), alice, alice.ParticipantRef)
	assert.ErrorIs(t, err, ErrSelfMessage)

	partRepo.On("Exists", mock.Anything, bob).Return(false, nil).Once()
	_, err = svc.StartConversation(context.Background(), alice, bob)
	assert.ErrorIs(t, err, ErrReceiverNotFound)

	partRepo.On("Exists", mock.Anything, bob).Return(true, nil).Once()
	convRepo.On("CreateOrGet", mock.Anything, alice.ParticipantRef, bob).Return(models.Conversation{ID: "conv-1"}, nil).Once()
	conv, err := svc.StartConversation(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ID)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	svc, _, msgRepo, _, notifier := newTestService()

	msg := models.Message{ID: "msg-1", ConversationID: "conv-1", SenderID: "1", SenderRole: models.RoleUser}

	msgRepo.On("Get", mock.Anything, "msg-1").Return(msg, nil).Twice()

	err := svc.DeleteMessage(context.Background(), bob, "conv-1", "msg-1")
	assert.ErrorIs(t, err, ErrNotSender)

	msgRepo.On("SoftDelete", mock.Anything, "msg-1", alice.ParticipantRef).Return(nil).Once()
	notifier.On("MessageDeleted", "conv-1", "msg-1").Once()

	require.NoError(t, svc.DeleteMessage(context.Background(), alice.ParticipantRef, "conv-1", "msg-1"))
	msgRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestDeleteMessageWrongConversation(t *testing.T) {
	svc, _, msgRepo, _, _ := newTestService()

	msg := models.Message{ID: "msg-1", ConversationID: "conv-1", SenderID: "1", SenderRole: models.RoleUser}
	msgRepo.On("Get", mock.Anything, "msg-1").Return(msg, nil).Once()

	err := svc.DeleteMessage(context.Background(), alice.ParticipantRef, "conv-other", "msg-1")
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
}
