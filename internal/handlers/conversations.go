package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/messaging"
	"messaging-service/internal/middleware"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	"messaging-service/internal/telemetry"
)

// ConversationHandler serves the request/response surface consumed by
// non-realtime callers: conversation lists, history, unread totals.
type ConversationHandler struct {
	service      *messaging.Service
	participants repositories.ParticipantRepository
	audit        *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(service *messaging.Service, participants repositories.ParticipantRepository, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{service: service, participants: participants, audit: audit}
}

// ListConversations returns the caller's conversations sorted by last
// activity, with the other side's username attached.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	summaries, err := h.service.ListConversations(c.Request.Context(), identity.ParticipantRef)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	refs := make([]models.ParticipantRef, 0, len(summaries))
	for _, s := range summaries {
		refs = append(refs, s.Other)
	}
	profiles, err := h.participants.BulkGet(c.Request.Context(), refs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participants"})
		return
	}
	usernameByKey := map[string]string{}
	for _, p := range profiles {
		usernameByKey[p.Ref().Key()] = p.Username
	}
	for i := range summaries {
		summaries[i].OtherUsername = usernameByKey[summaries[i].Other.Key()]
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// StartConversation creates or returns the conversation with another
// participant without requiring a first message.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req struct {
		ParticipantID   string      `json:"participant_id" binding:"required"`
		ParticipantRole models.Role `json:"participant_role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	other := models.ParticipantRef{ID: req.ParticipantID, Role: req.ParticipantRole}
	conv, err := h.service.StartConversation(c.Request.Context(), identity, other)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conv.ID})
}

// GetMessages returns paged history. Retrieval implicitly marks the
// caller's unread messages in the conversation as read.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	conversationID := c.Param("conversation_id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	msgs, err := h.service.History(c.Request.Context(), identity.ParticipantRef, conversationID, limit, offset)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "failed to load messages"})
		return
	}

	senderRefs := make([]models.ParticipantRef, 0, len(msgs))
	seen := map[string]struct{}{}
	for _, m := range msgs {
		ref := m.Sender()
		if _, ok := seen[ref.Key()]; !ok {
			seen[ref.Key()] = struct{}{}
			senderRefs = append(senderRefs, ref)
		}
	}
	profiles, err := h.participants.BulkGet(c.Request.Context(), senderRefs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}
	senderNames := map[string]string{}
	for _, p := range profiles {
		senderNames[p.Ref().Key()] = p.Username
	}

	type messageResponse struct {
		models.Message
		SenderUsername string `json:"sender_username,omitempty"`
	}
	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderUsername: senderNames[m.Sender().Key()]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// PostMessage persists and fans out a message over the REST path. The
// 201 response is the originator's acknowledgment.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req struct {
		ReceiverID   string             `json:"receiver_id" binding:"required"`
		ReceiverRole models.Role        `json:"receiver_role" binding:"required"`
		Content      string             `json:"content" binding:"required"`
		MessageType  models.MessageType `json:"message_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receiver := models.ParticipantRef{ID: req.ReceiverID, Role: req.ReceiverRole}
	msg, err := h.service.Send(c.Request.Context(), identity, receiver, req.Content, req.MessageType)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "message sent", requestIDFromContext(c), participantFromContext(c))
	c.JSON(http.StatusCreated, msg)
}

// UnreadCount returns the aggregate unread count across conversations.
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	total, err := h.service.TotalUnread(c.Request.Context(), identity.ParticipantRef)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": total})
}

// DeleteMessage soft-deletes a message; only the sender may do so.
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	conversationID := c.Param("conversation_id")
	messageID := c.Param("message_id")

	if err := h.service.DeleteMessage(c.Request.Context(), identity.ParticipantRef, conversationID, messageID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, messaging.ErrReceiverNotFound),
		errors.Is(err, repositories.ErrConversationNotFound),
		errors.Is(err, repositories.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, messaging.ErrNotAParticipant),
		errors.Is(err, messaging.ErrNotSender):
		return http.StatusForbidden
	case errors.Is(err, messaging.ErrInvalidContent),
		errors.Is(err, messaging.ErrSelfMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
