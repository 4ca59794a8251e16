package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"teamchat/internal/metrics"
	"teamchat/internal/shared"
	"teamchat/pkg/models"

	"golang.org/x/time/rate"
)

// teardown work runs after the connection context is gone
const teardownTimeout = 5 * time.Second

// Receipt frames draw from their own budget. Opening a channel acknowledges
// a whole history page at once (two frames per message, up to 100 messages).
const (
	DefaultAckRate  = 50
	DefaultAckBurst = 256
)

// Deps are the collaborators a Hub is built from.
type Deps struct {
	Auth      Authenticator
	Members   MembershipChecker
	Messages  MessageStore
	Receipts  ReceiptStore
	Presence  PresenceStore
	Logger    *slog.Logger
	RateLimit float64 // inbound events per second per connection, 0 disables
	RateBurst int
	AckRate   float64 // receipt frames per second, defaults to DefaultAckRate
	AckBurst  int
}

// Hub owns all realtime state for one server instance: the connection
// registry, the channel rooms and the components that act on them. Both
// transports feed the same hub.
type Hub struct {
	Registry *Registry
	Rooms    *Rooms
	Presence *PresenceTracker
	Sender   *SendPipeline
	Receipts *ReceiptCoordinator

	auth      Authenticator
	members   MembershipChecker
	logger    *slog.Logger
	rateLimit float64
	rateBurst int
	ackRate   float64
	ackBurst  int

	mu   sync.Mutex
	live int           // admitted sessions not yet torn down
	idle chan struct{} // closed when live drops to zero
}

func NewHub(deps Deps) *Hub {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ackRate, ackBurst := deps.AckRate, deps.AckBurst
	if ackRate <= 0 {
		ackRate = DefaultAckRate
	}
	if ackBurst < 1 {
		ackBurst = DefaultAckBurst
	}
	reg := NewRegistry(logger)
	rooms := NewRooms(logger)
	return &Hub{
		Registry:  reg,
		Rooms:     rooms,
		Presence:  NewPresenceTracker(deps.Presence, reg, logger),
		Sender:    NewSendPipeline(deps.Messages, rooms, logger),
		Receipts:  NewReceiptCoordinator(deps.Receipts, reg, logger),
		auth:      deps.Auth,
		members:   deps.Members,
		logger:    logger,
		rateLimit: deps.RateLimit,
		rateBurst: deps.RateBurst,
		ackRate:   ackRate,
		ackBurst:  ackBurst,
	}
}

// Session is one admitted connection with the identity its token proved.
type Session struct {
	conn      Conn
	claims    *shared.AuthClaims
	transport string
	limiter   *rate.Limiter
	acks      *rate.Limiter
	once      sync.Once
}

func (s *Session) Conn() Conn { return s.conn }

func (s *Session) Claims() *shared.AuthClaims { return s.claims }

// Authenticate validates the bearer token presented at connect time.
func (h *Hub) Authenticate(token string) (*shared.AuthClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", shared.ErrAuthenticationRejected)
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		if errors.Is(err, shared.ErrAuthenticationRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthenticationRejected, err)
	}
	return claims, nil
}

// Admit registers an authenticated connection. Every admitted session must
// eventually be passed to Teardown.
func (h *Hub) Admit(conn Conn, claims *shared.AuthClaims, transport string) *Session {
	s := &Session{conn: conn, claims: claims, transport: transport}
	if h.rateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(h.rateLimit), max(h.rateBurst, 1))
		s.acks = rate.NewLimiter(rate.Limit(h.ackRate), h.ackBurst)
	}
	h.mu.Lock()
	if h.live == 0 {
		h.idle = make(chan struct{})
	}
	h.live++
	h.mu.Unlock()
	h.Registry.Add(conn)
	metrics.ConnectionsActive.WithLabelValues(transport).Inc()
	h.logger.Info("connection_admitted", "conn_id", conn.ID(), "user_id", claims.UserID, "transport", transport)
	return s
}

// Teardown leaves all rooms, unregisters and applies the presence edge.
// It runs at most once per session no matter how many paths call it.
func (h *Hub) Teardown(s *Session) {
	s.once.Do(func() {
		id := s.conn.ID()
		left := h.Rooms.RemoveFromAll(id)
		userID, edge := h.Registry.Unregister(id)
		h.Registry.Remove(id)
		s.conn.Close()
		metrics.ConnectionsActive.WithLabelValues(s.transport).Dec()

		if edge != nil {
			ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
			h.Presence.Apply(ctx, edge)
			cancel()
		}
		h.logger.Info("connection_closed", "conn_id", id, "user_id", userID, "rooms_left", len(left))

		h.mu.Lock()
		h.live--
		if h.live == 0 {
			close(h.idle)
		}
		h.mu.Unlock()
	})
}

// HandleFrame decodes and dispatches one inbound frame. Failures are reported
// to the session's own connection as error events; nothing here ends the session.
func (h *Hub) HandleFrame(ctx context.Context, s *Session, frame []byte) {
	env, err := models.Decode(frame)
	if !s.allow(env) {
		metrics.RateLimitHits.WithLabelValues(s.transport).Inc()
		h.logger.Warn("rate_limit_exceeded", "conn_id", s.conn.ID())
		h.reply(s, models.ReasonRateLimited, "rate limit exceeded")
		return
	}
	if err != nil {
		h.logger.Warn("invalid_frame", "conn_id", s.conn.ID(), "error", err)
		h.reply(s, models.ReasonValidationFailure, err.Error())
		return
	}

	switch env.Type {
	case models.EventIdentify:
		err = h.handleIdentify(ctx, s, env)
	case models.EventJoinChannel:
		err = h.handleJoin(ctx, s, env)
	case models.EventLeaveChannel:
		err = h.handleLeave(s, env)
	case models.EventSendMessage:
		err = h.handleSend(ctx, s, env)
	case models.EventMessageDelivered, models.EventMessageRead:
		err = h.handleReceipt(ctx, s, env)
	default:
		h.reply(s, models.ReasonUnknownEvent, fmt.Sprintf("unknown event %q", env.Type))
		return
	}
	if err != nil {
		h.reply(s, reasonFor(env.Type, err), err.Error())
	}
}

// allow charges the frame to the receipt budget or the general one.
// Undecodable frames count against the general budget.
func (s *Session) allow(env *models.Envelope) bool {
	if s.limiter == nil {
		return true
	}
	if env != nil && (env.Type == models.EventMessageDelivered || env.Type == models.EventMessageRead) {
		return s.acks.Allow()
	}
	return s.limiter.Allow()
}

func (h *Hub) reply(s *Session, reason, message string) {
	deliver(s.conn, errorFrame(reason, message), h.logger)
}

// boundUser returns the identified user or shared.ErrNotIdentified.
func (h *Hub) boundUser(s *Session) (int64, error) {
	userID, ok := h.Registry.UserOf(s.conn.ID())
	if !ok {
		return 0, shared.ErrNotIdentified
	}
	return userID, nil
}

// checkActor rejects payloads that name a user other than the bound one.
// A zero id means "me".
func checkActor(bound, claimed int64) error {
	if claimed != 0 && claimed != bound {
		return fmt.Errorf("%w: user_id %d does not match identified user", shared.ErrValidation, claimed)
	}
	return nil
}

func (h *Hub) handleIdentify(ctx context.Context, s *Session, env *models.Envelope) error {
	var p models.IdentifyPayload
	if err := env.DecodeData(&p); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if p.UserID != s.claims.UserID {
		return fmt.Errorf("%w: identify as %d with a token for %d", shared.ErrValidation, p.UserID, s.claims.UserID)
	}
	edge, err := h.Registry.Register(s.conn, p.UserID)
	if err != nil {
		return err
	}
	h.Presence.Apply(ctx, edge)
	return nil
}

func (h *Hub) handleJoin(ctx context.Context, s *Session, env *models.Envelope) error {
	userID, err := h.boundUser(s)
	if err != nil {
		return err
	}
	var p models.ChannelPayload
	if err := env.DecodeData(&p); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if p.ChannelID <= 0 {
		return fmt.Errorf("%w: invalid channel id", shared.ErrValidation)
	}

	ok, err := h.members.IsMember(ctx, p.ChannelID, userID)
	if err != nil {
		h.logger.Error("membership_check_failed", "channel_id", p.ChannelID, "user_id", userID, "error", err)
		return fmt.Errorf("%w: membership check failed", shared.ErrMembershipDenied)
	}
	if !ok {
		return fmt.Errorf("%w: not a member of channel %d", shared.ErrMembershipDenied, p.ChannelID)
	}
	h.Rooms.Join(p.ChannelID, s.conn)
	return nil
}

func (h *Hub) handleLeave(s *Session, env *models.Envelope) error {
	var p models.ChannelPayload
	if err := env.DecodeData(&p); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	h.Rooms.Leave(p.ChannelID, s.conn.ID())
	return nil
}

func (h *Hub) handleSend(ctx context.Context, s *Session, env *models.Envelope) error {
	userID, err := h.boundUser(s)
	if err != nil {
		return err
	}
	var p models.SendMessagePayload
	if err := env.DecodeData(&p); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if err := checkActor(userID, p.UserID); err != nil {
		return err
	}
	if !h.Rooms.IsJoined(p.ChannelID, s.conn.ID()) {
		return fmt.Errorf("%w: join channel %d before sending", shared.ErrMembershipDenied, p.ChannelID)
	}
	_, err = h.Sender.Send(ctx, p.ChannelID, userID, p.Text)
	return err
}

// handleReceipt only surfaces validation problems; store failures stay
// invisible to the observer.
func (h *Hub) handleReceipt(ctx context.Context, s *Session, env *models.Envelope) error {
	userID, err := h.boundUser(s)
	if err != nil {
		return err
	}
	var p models.ReceiptPayload
	if err := env.DecodeData(&p); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if err := checkActor(userID, p.UserID); err != nil {
		return err
	}

	if env.Type == models.EventMessageRead {
		err = h.Receipts.MarkRead(ctx, p.MessageID, userID)
	} else {
		err = h.Receipts.MarkDelivered(ctx, p.MessageID, userID)
	}
	if errors.Is(err, shared.ErrValidation) {
		return err
	}
	return nil
}

// Shutdown closes every admitted connection and waits until each read loop
// has torn its session down, or until ctx ends.
func (h *Hub) Shutdown(ctx context.Context) error {
	conns := h.Registry.All()
	for _, c := range conns {
		c.Close()
	}
	h.logger.Info("hub_shutdown", "connections", len(conns))

	h.mu.Lock()
	if h.live == 0 {
		h.mu.Unlock()
		return nil
	}
	idle := h.idle
	h.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown: %w", ctx.Err())
	}
}
