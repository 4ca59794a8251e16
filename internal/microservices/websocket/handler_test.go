package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"teamchat/internal/config"
	"teamchat/internal/microservices/chat"
	"teamchat/internal/shared"
	"teamchat/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct{}

func (stubAuth) ValidateToken(token string) (*shared.AuthClaims, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad token", shared.ErrAuthenticationRejected)
	}
	return &shared.AuthClaims{UserID: id, Name: fmt.Sprintf("user%d", id)}, nil
}

type allowAll struct{}

func (allowAll) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	return true, nil
}

type memStore struct {
	mu   sync.Mutex
	next int64
}

func (m *memStore) Insert(ctx context.Context, channelID, senderID int64, text string) (*models.MessageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return &models.MessageRecord{ID: m.next, ChannelID: channelID, UserID: senderID, Text: text, Timestamp: time.Now().UTC()}, nil
}

type noReceipts struct{}

func (noReceipts) UpsertDelivered(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error) {
	return at, nil
}

func (noReceipts) UpsertRead(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error) {
	return at, nil
}

func (noReceipts) SenderOf(ctx context.Context, messageID int64) (int64, error) {
	return 0, shared.ErrNotFound
}

type noPresence struct{}

func (noPresence) SetOnline(ctx context.Context, userID int64, online bool) error { return nil }

func startServer(t *testing.T) (*chat.Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := chat.NewHub(chat.Deps{
		Auth:     stubAuth{},
		Members:  allowAll{},
		Messages: &memStore{},
		Receipts: noReceipts{},
		Presence: noPresence{},
	})
	r := gin.New()
	r.GET("/ws", Handler(hub, &config.Config{SendBuffer: 16}, slog.Default()))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, hub.Shutdown(ctx))
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *models.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := models.Decode(frame)
	require.NoError(t, err)
	return env
}

func TestHandler_IdentifyJoinSend(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url+"?token=token-5")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"identify","data":{"user_id":5}}`)))
	assert.Equal(t, models.EventUserOnline, readEnvelope(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join_channel","data":{"channel_id":9}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"send_message","data":{"channel_id":9,"text":"hi"}}`)))

	env := readEnvelope(t, conn)
	require.Equal(t, models.EventNewMessage, env.Type)
	var rec models.MessageRecord
	require.NoError(t, env.DecodeData(&rec))
	assert.Equal(t, "hi", rec.Text)
	assert.Equal(t, int64(9), rec.ChannelID)
}

func TestHandler_BearerHeader(t *testing.T) {
	hub, url := startServer(t)
	header := http.Header{}
	header.Set("Authorization", "Bearer token-3")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return hub.Registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsBadToken(t *testing.T) {
	hub, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token=nope", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.Registry.Len())
}

func TestHandler_DisconnectTearsDown(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, url+"?token=token-8")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"identify","data":{"user_id":8}}`)))
	readEnvelope(t, conn)
	require.Len(t, hub.Registry.ConnectionsOf(8), 1)

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.Registry.Len() == 0 && len(hub.Registry.ConnectionsOf(8)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_SendFullQueue(t *testing.T) {
	c := NewClient(nil, 1, slog.Default())

	assert.True(t, c.Send([]byte("a")))
	assert.False(t, c.Send([]byte("b")))

	c.Close()
	assert.True(t, c.Send([]byte("c")), "closed clients swallow frames")
}
