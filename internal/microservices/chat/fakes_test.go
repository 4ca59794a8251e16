package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"teamchat/internal/shared"
	"teamchat/pkg/models"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn records frames in memory. capacity 0 means unbounded.
type fakeConn struct {
	id       string
	capacity int

	mu     sync.Mutex
	frames [][]byte
	closed int
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed > 0 {
		return true
	}
	if c.capacity > 0 && len(c.frames) >= c.capacity {
		return false
	}
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed > 0
}

func (c *fakeConn) events(t *testing.T) []models.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		env, err := models.Decode(f)
		require.NoError(t, err)
		out = append(out, *env)
	}
	return out
}

func (c *fakeConn) eventsOf(t *testing.T, typ models.EventType) []models.Envelope {
	t.Helper()
	var out []models.Envelope
	for _, e := range c.events(t) {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

func decodeData[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// fakeAuth maps "token-<id>" to user <id>.
type fakeAuth struct{}

func (fakeAuth) ValidateToken(token string) (*shared.AuthClaims, error) {
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad token", shared.ErrAuthenticationRejected)
	}
	return &shared.AuthClaims{UserID: id, Name: fmt.Sprintf("user%d", id)}, nil
}

type fakeMembers struct {
	mu      sync.Mutex
	members map[[2]int64]bool
	err     error
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: make(map[[2]int64]bool)}
}

func (m *fakeMembers) allow(channelID, userID int64) {
	m.mu.Lock()
	m.members[[2]int64{channelID, userID}] = true
	m.mu.Unlock()
}

func (m *fakeMembers) IsMember(_ context.Context, channelID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.members[[2]int64{channelID, userID}], nil
}

// fakeMessages assigns ids starting at nextID.
type fakeMessages struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.MessageRecord
	err    error
}

func newFakeMessages(firstID int64) *fakeMessages {
	return &fakeMessages{nextID: firstID, rows: make(map[int64]models.MessageRecord)}
}

func (s *fakeMessages) Insert(_ context.Context, channelID, senderID int64, text string) (*models.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rec := models.MessageRecord{
		ID:         s.nextID,
		ChannelID:  channelID,
		UserID:     senderID,
		Text:       text,
		Timestamp:  time.Now().UTC(),
		SenderName: fmt.Sprintf("user%d", senderID),
	}
	s.rows[rec.ID] = rec
	s.nextID++
	return &rec, nil
}

func (s *fakeMessages) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// fakeReceipts keeps the monotonic-min rule the SQL upsert enforces.
type fakeReceipts struct {
	mu        sync.Mutex
	senders   map[int64]int64
	delivered map[[2]int64]time.Time
	read      map[[2]int64]time.Time
	err       error
}

func newFakeReceipts() *fakeReceipts {
	return &fakeReceipts{
		senders:   make(map[int64]int64),
		delivered: make(map[[2]int64]time.Time),
		read:      make(map[[2]int64]time.Time),
	}
}

func (s *fakeReceipts) upsert(slot map[[2]int64]time.Time, messageID, userID int64, at time.Time) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return time.Time{}, s.err
	}
	if _, ok := s.senders[messageID]; !ok {
		return time.Time{}, shared.ErrNotFound
	}
	key := [2]int64{messageID, userID}
	if cur, ok := slot[key]; ok && cur.Before(at) {
		return cur, nil
	}
	slot[key] = at
	return at, nil
}

func (s *fakeReceipts) UpsertDelivered(_ context.Context, messageID, userID int64, at time.Time) (time.Time, error) {
	return s.upsert(s.delivered, messageID, userID, at)
}

func (s *fakeReceipts) UpsertRead(_ context.Context, messageID, userID int64, at time.Time) (time.Time, error) {
	return s.upsert(s.read, messageID, userID, at)
}

func (s *fakeReceipts) SenderOf(_ context.Context, messageID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sender, ok := s.senders[messageID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return sender, nil
}

type presenceCall struct {
	UserID int64
	Online bool
}

type fakePresence struct {
	mu    sync.Mutex
	calls []presenceCall
	flags map[int64]bool
	err   error
}

func newFakePresence() *fakePresence {
	return &fakePresence{flags: make(map[int64]bool)}
}

func (s *fakePresence) SetOnline(_ context.Context, userID int64, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, presenceCall{userID, online})
	if s.err != nil {
		return s.err
	}
	s.flags[userID] = online
	return nil
}

func (s *fakePresence) flag(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[userID]
}

var errStoreDown = errors.New("store down")

// testHub wires a hub over the fakes.
type testHub struct {
	*Hub
	members  *fakeMembers
	messages *fakeMessages
	receipts *fakeReceipts
	presence *fakePresence
}

func newTestHub() *testHub {
	th := &testHub{
		members:  newFakeMembers(),
		messages: newFakeMessages(42),
		receipts: newFakeReceipts(),
		presence: newFakePresence(),
	}
	th.Hub = NewHub(Deps{
		Auth:     fakeAuth{},
		Members:  th.members,
		Messages: th.messages,
		Receipts: th.receipts,
		Presence: th.presence,
		Logger:   discardLogger(),
	})
	return th
}

// connect admits a connection for userID and identifies it.
func (th *testHub) connect(t *testing.T, connID string, userID int64) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn(connID)
	claims, err := th.Authenticate(fmt.Sprintf("token-%d", userID))
	require.NoError(t, err)
	s := th.Admit(conn, claims, "test")
	th.send(t, s, models.EventIdentify, models.IdentifyPayload{UserID: userID})
	return s, conn
}

func (th *testHub) send(t *testing.T, s *Session, typ models.EventType, data any) {
	t.Helper()
	frame, err := models.Encode(typ, data)
	require.NoError(t, err)
	th.HandleFrame(context.Background(), s, frame)
}
