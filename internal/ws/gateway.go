package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/auth"
	"messaging-service/internal/messaging"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// Gateway is the single entry point for live connections. It owns the
// authentication gate, connection lifecycle, group membership, and all
// outbound event emission.
type Gateway struct {
	hub      *Hub
	presence PresenceRegistry
	typing   TypingIndicators
	service  *messaging.Service
	verifier auth.Verifier
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, presence PresenceRegistry, typing TypingIndicators, service *messaging.Service, verifier auth.Verifier) *Gateway {
	return &Gateway{hub: hub, presence: presence, typing: typing, service: service, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, upgrades, and registers a connection. A failed
// credential refuses the connection before any event can be processed.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	identity, err := g.verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:        newConnID(),
		ParticipantID: identity.ID,
		Role:          string(identity.Role),
		DeviceID:      observability.DeviceIDFromRequest(c.Request),
		IP:            observability.IPFromRequest(c.Request),
		RequestID:     observability.RequestIDFromRequest(c.Request),
		TraceID:       span.SpanContext().TraceID().String(),
		ConnectedAt:   time.Now(),
	}
	client := newClient(g, conn, identity, info)

	g.hub.Register(client)
	g.presence.Register(info.ConnID, identity.ParticipantRef)
	g.broadcastStatus(identity.ParticipantRef, "online")

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.publishConnEvent(ctx, "ws_connect", info, "", 0)

	go client.writePump()
	go client.readPump()
}

// Online reports the participants currently connected to this process.
func (g *Gateway) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": g.presence.ListOnline()})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		if len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
			return header[7:]
		}
		return ""
	}
	return c.Query("token")
}

// dispatch routes one inbound event. Per-event failures become a scoped
// message_error back to the originator; the connection stays usable.
func (g *Gateway) dispatch(c *Client, event *Event) {
	observability.IncWSEvent(event.Type)
	ctx := context.Background()

	switch event.Type {
	case EventJoinConversation:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ConversationID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid join_conversation payload")
			return
		}
		member, err := g.service.IsParticipant(ctx, p.ConversationID, c.identity.ParticipantRef)
		if err != nil {
			c.sendError("STORE_UNAVAILABLE", "could not verify membership")
			return
		}
		if !member {
			c.sendError("NOT_A_PARTICIPANT", "not a participant of this conversation")
			return
		}
		g.hub.JoinConversation(p.ConversationID, c)

	case EventLeaveConversation:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ConversationID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid leave_conversation payload")
			return
		}
		g.hub.LeaveConversation(p.ConversationID, c)

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid send_message payload")
			return
		}
		receiver := models.ParticipantRef{ID: p.ReceiverID, Role: p.ReceiverRole}
		msg, err := g.service.Send(ctx, c.identity, receiver, p.Content, p.MessageType)
		if err != nil {
			code, text := errorCode(err)
			c.sendError(code, text)
			return
		}
		// Ack to the originating connection only, after the group and
		// personal broadcasts the service already emitted.
		if ack, err := NewEvent(EventMessageSent, MessageEventPayload{Message: msg, ConversationID: msg.ConversationID}); err == nil {
			c.sendEvent(ack)
		}

	case EventTypingStart:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ConversationID == "" {
			return
		}
		// Typing is fire-and-forget; only connections that joined the
		// group may flag it, everything else is silently ignored.
		if !g.hub.IsJoined(p.ConversationID, c) {
			return
		}
		g.typing.Start(p.ConversationID, c.identity.ParticipantRef, c.identity.Username)
		g.broadcastTyping(EventUserTyping, p.ConversationID, c)

	case EventTypingStop:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ConversationID == "" {
			return
		}
		if !g.hub.IsJoined(p.ConversationID, c) {
			return
		}
		g.typing.Stop(p.ConversationID, c.identity.ParticipantRef)
		g.broadcastTyping(EventUserStoppedTyping, p.ConversationID, c)

	case EventMarkMessagesRead:
		var p MarkReadPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ConversationID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid mark_messages_read payload")
			return
		}
		if _, _, err := g.service.MarkRead(ctx, c.identity.ParticipantRef, p.ConversationID, p.MessageIDs); err != nil {
			code, text := errorCode(err)
			c.sendError(code, text)
			return
		}

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

// onDisconnect tears down everything tied to the connection: hub
// groups, presence, and any typing flags left dangling.
func (g *Gateway) onDisconnect(c *Client, closeReason string) {
	g.hub.Unregister(c)

	ref, wentOffline := g.presence.Unregister(c.info.ConnID)
	for _, conversationID := range g.typing.ClearParticipant(c.identity.ParticipantRef) {
		g.broadcastTyping(EventUserStoppedTyping, conversationID, nil)
	}
	if wentOffline {
		g.broadcastStatus(ref, "offline")
	}

	observability.DecWSActive()
	observability.IncWSEvent("ws_disconnect")
	g.publishConnEvent(context.Background(), "ws_disconnect", c.info, closeReason, time.Since(c.info.ConnectedAt))

	c.conn.Close()
}

func (g *Gateway) broadcastStatus(p models.ParticipantRef, status string) {
	evt, err := NewEvent(EventUserStatusChange, StatusChangePayload{
		UserID:    p.ID,
		Role:      p.Role,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	g.hub.BroadcastAll(evt)
}

// broadcastTyping emits a typing event to the conversation group. The
// originator is excluded; on disconnect cleanup there is none.
func (g *Gateway) broadcastTyping(eventType, conversationID string, origin *Client) {
	payload := TypingPayload{ConversationID: conversationID}
	if origin != nil {
		payload.UserID = origin.identity.ID
		payload.Role = origin.identity.Role
		payload.Username = origin.identity.Username
	}
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	g.hub.BroadcastToConversation(conversationID, evt, origin)
}

func (g *Gateway) publishConnEvent(ctx context.Context, name string, info ConnInfo, reason string, duration time.Duration) {
	_ = observability.PublishEvent(ctx, "ws_events.messaging", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       name,
				"conn_id":     info.ConnID,
				"duration_ms": duration.Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"participant_id": info.ParticipantID,
				"role":           info.Role,
				"device_id":      info.DeviceID,
				"ip":             info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, messaging.ErrReceiverNotFound):
		return "RECEIVER_NOT_FOUND", "receiver does not exist"
	case errors.Is(err, messaging.ErrNotAParticipant):
		return "NOT_A_PARTICIPANT", "not a participant of this conversation"
	case errors.Is(err, messaging.ErrInvalidContent):
		return "INVALID_PAYLOAD", "message content is empty or too long"
	case errors.Is(err, messaging.ErrSelfMessage):
		return "INVALID_PAYLOAD", "cannot message yourself"
	case errors.Is(err, repositories.ErrConversationNotFound):
		return "CONVERSATION_NOT_FOUND", "conversation not found"
	default:
		return "STORE_UNAVAILABLE", "message delivery failed"
	}
}
