package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"teamchat/internal/microservices/chat"
	"teamchat/pkg/models"

	"github.com/google/uuid"
)

// one JSON event per line; lines are small so cap them
const MaxMessageSize = 16 * 1024

const (
	MaxDeadlineDuration = 5 * time.Minute  // idle read timeout
	WriteWait           = 10 * time.Second // max time to write one batch to the peer
)

// ClientConnection is one line-delimited JSON session. It satisfies chat.Conn.
type ClientConnection struct {
	id     string
	conn   net.Conn
	writer *bufio.Writer
	send   chan []byte   // outbound queue, never closed
	done   chan struct{} // closed once by Close
	once   sync.Once
	logger *slog.Logger
}

// constructor for Connection
func NewClientConnection(conn net.Conn, sendBuffer int, logger *slog.Logger) *ClientConnection {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientConnection{
		id:     uuid.NewString(),
		conn:   conn,
		writer: bufio.NewWriter(conn),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *ClientConnection) ID() string { return c.id }

// Send never blocks. A full queue returns false and the hub closes us.
func (c *ClientConnection) Send(frame []byte) bool {
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

// Close drops the socket, which ends Listen and with it the session.
func (c *ClientConnection) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Listen authenticates the peer, then feeds every line to the hub until
// the socket fails.
func (c *ClientConnection) Listen(ctx context.Context, hub *chat.Hub) {
	defer c.Close()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxMessageSize)

	claims, err := authenticate(scanner, c.conn, hub)
	if err != nil {
		c.logger.Warn("tcp_auth_rejected",
			"client_id", c.id,
			"remote_addr", c.conn.RemoteAddr().String(),
			"error", err,
		)
		if frame, encErr := models.Encode(models.EventError, models.ErrorPayload{
			Reason:  models.ReasonAuthenticationRejected,
			Message: "authentication required",
		}); encErr == nil {
			c.writeNow(frame)
		}
		return
	}

	session := hub.Admit(c, claims, "tcp")
	defer hub.Teardown(session)

	if ack, err := models.Encode(models.EventAuthenticated, models.AuthenticatedPayload{
		UserID: claims.UserID,
		Name:   claims.Name,
	}); err == nil {
		c.Send(ack)
	}
	go c.writeLoop()

	for {
		c.conn.SetReadDeadline(time.Now().Add(MaxDeadlineDuration))
		if !scanner.Scan() {
			c.logReadEnd(scanner.Err())
			return
		}
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		hub.HandleFrame(ctx, session, line)
	}
}

func (c *ClientConnection) logReadEnd(err error) {
	switch {
	case err == nil, errors.Is(err, io.EOF):
		c.logger.Info("client_disconnected", "client_id", c.id)
	case errors.Is(err, bufio.ErrTooLong):
		c.logger.Warn("message_too_large", "client_id", c.id, "max_size", MaxMessageSize)
	case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		// closed by us: slow consumer, shutdown or teardown
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.logger.Warn("client_read_timeout", "client_id", c.id)
			return
		}
		c.logger.Error("client_read_error", "client_id", c.id, "error", err)
	}
}

// writeLoop drains the send queue, flushing once per batch.
func (c *ClientConnection) writeLoop() {
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.write(frame); err != nil {
				c.logger.Debug("tcp_write_error", "client_id", c.id, "error", err)
				c.Close()
				return
			}
			for n := len(c.send); n > 0; n-- {
				if err := c.write(<-c.send); err != nil {
					c.Close()
					return
				}
			}
			if err := c.writer.Flush(); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// write appends frame plus the newline delimiter to the buffer.
func (c *ClientConnection) write(frame []byte) error {
	if _, err := c.writer.Write(frame); err != nil {
		return err
	}
	return c.writer.WriteByte('\n')
}

// writeNow bypasses the queue; only used before the write loop exists.
func (c *ClientConnection) writeNow(frame []byte) {
	c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	if err := c.write(frame); err == nil {
		c.writer.Flush()
	}
}
