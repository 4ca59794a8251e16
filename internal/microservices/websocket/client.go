package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"teamchat/internal/microservices/chat"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const ( // ping pong(2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time write a message to the peer
	PongWait       = 60 * time.Second    // max time to wait for pong from peer => no pong = no connection
	PingPeriod     = (PongWait * 9) / 10 // ping before pong wait expires, 10% slack for jitter
	MaxMessageSize = 16 * 1024           // maximum inbound frame size
)

// Client is one websocket session. It satisfies chat.Conn.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte   // outbound queue, never closed
	done   chan struct{} // closed once by Close
	once   sync.Once
	logger *slog.Logger
}

func NewClient(conn *websocket.Conn, sendBuffer int, logger *slog.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *Client) ID() string { return c.id }

// Send never blocks. A full queue returns false and the hub closes us.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close signals the write pump to say goodbye and drop the socket, which
// in turn ends the read pump.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// ReadPump feeds inbound frames to the hub until the socket fails, then
// tears the session down.
func (c *Client) ReadPump(ctx context.Context, hub *chat.Hub, session *chat.Session) {
	defer func() {
		hub.Teardown(session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Warn("ws_read_error", "conn_id", c.id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		hub.HandleFrame(ctx, session, frame)
	}
}

// WritePump drains the send queue and keeps the peer alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("ws_write_error", "conn_id", c.id, "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
