package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 8192
	sendBufSize    = 256
)

// Client is one live authenticated connection.
type Client struct {
	gw       *Gateway
	conn     *websocket.Conn
	identity models.Identity
	info     ConnInfo

	// joined tracks conversation group membership; guarded by the hub's lock.
	joined map[string]struct{}

	send    chan []byte
	closeMu sync.Mutex
	closed  bool
}

func newClient(gw *Gateway, conn *websocket.Conn, identity models.Identity, info ConnInfo) *Client {
	return &Client{
		gw:       gw,
		conn:     conn,
		identity: identity,
		info:     info,
		joined:   make(map[string]struct{}),
		send:     make(chan []byte, sendBufSize),
	}
}

// enqueue hands data to the write pump without blocking; events to a
// client with a full buffer are dropped.
func (c *Client) enqueue(data []byte) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) sendEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventMessageError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.sendEvent(evt)
}

// readPump consumes inbound events until the connection drops, then
// triggers disconnect cleanup.
func (c *Client) readPump() {
	var closeReason string
	defer func() {
		c.gw.onDisconnect(c, closeReason)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: read error from %s: %v", c.identity.Key(), err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.sendError("INVALID_PAYLOAD", "malformed event")
			continue
		}
		c.gw.dispatch(c, &event)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("ws: write error to %s: %v", c.identity.Key(), err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
