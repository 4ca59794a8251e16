package client

// ws_client.go = realtime chat over the server's websocket endpoint.

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"teamchat/pkg/models"
	"teamchat/pkg/timeline"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
)

// FrameConn is the part of *websocket.Conn a chat session uses.
type FrameConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var (
	ownColor    = color.New(color.FgGreen)
	otherColor  = color.New(color.FgCyan)
	systemColor = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
	statusColor = color.New(color.FgHiBlack)
)

// WebsocketURL turns the API base URL into the /ws endpoint.
func WebsocketURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// DialChat opens an authenticated websocket to the server.
func DialChat(ctx context.Context, apiURL, token string) (*websocket.Conn, error) {
	wsURL, err := WebsocketURL(apiURL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return conn, nil
}

// ChatSession drives one channel view: it keeps the local timeline,
// acknowledges what it shows, and prints events as they arrive.
type ChatSession struct {
	conn      FrameConn
	selfID    int64
	channelID int64
	buffer    *timeline.Buffer
	out       io.Writer

	writeMu sync.Mutex // one writer at a time on the socket

	mu     sync.Mutex
	online map[int64]bool
	names  map[int64]string
}

func NewChatSession(conn FrameConn, selfID, channelID int64, out io.Writer) *ChatSession {
	return &ChatSession{
		conn:      conn,
		selfID:    selfID,
		channelID: channelID,
		buffer:    timeline.NewBuffer(channelID),
		out:       out,
		online:    make(map[int64]bool),
		names:     make(map[int64]string),
	}
}

// Timeline exposes the session's buffer
func (s *ChatSession) Timeline() *timeline.Buffer {
	return s.buffer
}

// SetMembers seeds display names and the online set.
func (s *ChatSession) SetMembers(users []models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.names[u.ID] = u.Name
		if u.Online {
			s.online[u.ID] = true
		}
	}
}

// Start identifies, joins the channel room and shows the history page.
func (s *ChatSession) Start(history []models.MessageRecord) error {
	if err := s.emit(models.EventIdentify, models.IdentifyPayload{UserID: s.selfID}); err != nil {
		return err
	}
	if err := s.emit(models.EventJoinChannel, models.ChannelPayload{ChannelID: s.channelID}); err != nil {
		return err
	}

	for _, msg := range s.buffer.MergePage(history) {
		s.rememberName(msg)
		s.printMessage(msg)
		if msg.UserID != s.selfID {
			if err := s.acknowledge(msg.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Send posts text to the channel
func (s *ChatSession) Send(text string) error {
	return s.emit(models.EventSendMessage, models.SendMessagePayload{
		ChannelID: s.channelID,
		UserID:    s.selfID,
		Text:      text,
	})
}

// Leave drops out of the channel room; membership is untouched
func (s *ChatSession) Leave() error {
	return s.emit(models.EventLeaveChannel, models.ChannelPayload{ChannelID: s.channelID})
}

// Online lists users currently known to be online, ascending.
func (s *ChatSession) Online() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HandleFrame applies one server event to the view.
func (s *ChatSession) HandleFrame(frame []byte) error {
	env, err := models.Decode(frame)
	if err != nil {
		return fmt.Errorf("bad event: %w", err)
	}

	switch env.Type {
	case models.EventNewMessage:
		var msg models.MessageRecord
		if err := env.DecodeData(&msg); err != nil {
			return err
		}
		if !s.buffer.ApplyLive(msg) {
			return nil
		}
		s.rememberName(msg)
		s.printMessage(msg)
		if msg.UserID != s.selfID {
			return s.acknowledge(msg.ID)
		}

	case models.EventMessageDeliveryUpdate:
		var p models.DeliveryUpdatePayload
		if err := env.DecodeData(&p); err != nil {
			return err
		}
		return s.applyReceipt(p.MessageID, p.UserID, models.ReceiptDelivered, p.DeliveredAt)

	case models.EventMessageReadUpdate:
		var p models.ReadUpdatePayload
		if err := env.DecodeData(&p); err != nil {
			return err
		}
		return s.applyReceipt(p.MessageID, p.UserID, models.ReceiptRead, p.ReadAt)

	case models.EventUserOnline, models.EventUserOffline:
		var p models.PresencePayload
		if err := env.DecodeData(&p); err != nil {
			return err
		}
		online := env.Type == models.EventUserOnline
		s.mu.Lock()
		if online {
			s.online[p.UserID] = true
		} else {
			delete(s.online, p.UserID)
		}
		name := s.displayNameLocked(p.UserID)
		s.mu.Unlock()
		if p.UserID != s.selfID {
			state := "offline"
			if online {
				state = "online"
			}
			systemColor.Fprintf(s.out, "* %s is %s\n", name, state)
		}

	case models.EventError:
		var p models.ErrorPayload
		if err := env.DecodeData(&p); err != nil {
			return err
		}
		errorColor.Fprintf(s.out, "! %s: %s\n", p.Reason, p.Message)
	}
	return nil
}

// Run pumps server events until the socket closes and forwards lines from
// in as messages. "/quit" ends the session, "/who" lists who is online.
func (s *ChatSession) Run(ctx context.Context, in io.Reader) error {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, frame, err := s.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			if err := s.HandleFrame(frame); err != nil {
				errorColor.Fprintf(s.out, "! %v\n", err)
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	defer s.conn.Close()
	for {
		select {
		case <-ctx.Done():
			s.Leave()
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok || line == "/quit" {
				s.Leave()
				return nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case line == "/who":
				s.printOnline()
			default:
				if err := s.Send(line); err != nil {
					return err
				}
			}
		}
	}
}

// acknowledge marks a displayed message delivered and then read
func (s *ChatSession) acknowledge(messageID int64) error {
	receipt := models.ReceiptPayload{MessageID: messageID, UserID: s.selfID}
	if err := s.emit(models.EventMessageDelivered, receipt); err != nil {
		return fmt.Errorf("acknowledge message %d: %w", messageID, err)
	}
	if err := s.emit(models.EventMessageRead, receipt); err != nil {
		return fmt.Errorf("acknowledge message %d: %w", messageID, err)
	}
	return nil
}

func (s *ChatSession) applyReceipt(messageID, observerID int64, kind models.ReceiptKind, ts time.Time) error {
	known, err := s.buffer.ApplyReceiptUpdate(messageID, observerID, kind, ts)
	if err != nil || !known {
		return err
	}
	if ind, mine := s.buffer.Indicator(messageID, s.selfID); mine {
		statusColor.Fprintf(s.out, "  #%d %s\n", messageID, indicatorMark(ind))
	}
	return nil
}

func (s *ChatSession) emit(t models.EventType, payload any) error {
	frame, err := models.Encode(t, payload)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *ChatSession) rememberName(msg models.MessageRecord) {
	if msg.SenderName == "" {
		return
	}
	s.mu.Lock()
	s.names[msg.UserID] = msg.SenderName
	s.mu.Unlock()
}

func (s *ChatSession) displayNameLocked(userID int64) string {
	if name, ok := s.names[userID]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("user %d", userID)
}

func (s *ChatSession) printMessage(msg models.MessageRecord) {
	stamp := msg.Timestamp.Local().Format("15:04")
	if msg.UserID == s.selfID {
		ind, _ := s.buffer.Indicator(msg.ID, s.selfID)
		ownColor.Fprintf(s.out, "[%s] you: %s  %s\n", stamp, msg.Text, indicatorMark(ind))
		return
	}
	s.mu.Lock()
	name := s.displayNameLocked(msg.UserID)
	s.mu.Unlock()
	otherColor.Fprintf(s.out, "[%s] %s: %s\n", stamp, name, msg.Text)
}

func (s *ChatSession) printOnline() {
	ids := s.Online()
	s.mu.Lock()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, s.displayNameLocked(id))
	}
	s.mu.Unlock()
	systemColor.Fprintf(s.out, "* online: %s\n", strings.Join(names, ", "))
}

// indicatorMark renders an indicator the way the chat view shows it
func indicatorMark(ind timeline.Indicator) string {
	switch ind.Status {
	case timeline.StatusRead:
		return fmt.Sprintf("✓✓ %d", ind.Count)
	case timeline.StatusDelivered:
		return fmt.Sprintf("✓ %d", ind.Count)
	default:
		return "…"
	}
}
