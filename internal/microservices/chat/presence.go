package chat

import (
	"context"
	"log/slog"
	"sync"

	"teamchat/internal/metrics"
	"teamchat/pkg/models"
)

const presenceStripes = 32

// PresenceTracker turns registry edges into a persisted online flag plus a
// user_online / user_offline event to every admitted connection.
type PresenceTracker struct {
	store  PresenceStore
	reg    *Registry
	logger *slog.Logger

	// edges of one user apply serially; different users proceed in parallel
	stripes [presenceStripes]sync.Mutex

	mu      sync.Mutex
	applied map[int64]uint64 // user -> seq of the last applied edge, only while connected
}

func NewPresenceTracker(store PresenceStore, reg *Registry, logger *slog.Logger) *PresenceTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresenceTracker{
		store:   store,
		reg:     reg,
		logger:  logger,
		applied: make(map[int64]uint64),
	}
}

// Apply persists and broadcasts one edge. An edge older than one already
// applied for the same user is dropped and Apply reports false. Once a user
// is offline with no connections their entry is forgotten; an online edge
// for a user the registry no longer holds is stale as well.
func (p *PresenceTracker) Apply(ctx context.Context, edge *PresenceEdge) bool {
	if edge == nil {
		return false
	}
	stripe := &p.stripes[uint64(edge.UserID)%presenceStripes]
	stripe.Lock()
	defer stripe.Unlock()

	p.mu.Lock()
	last, seen := p.applied[edge.UserID]
	if edge.Seq <= last || (!seen && edge.Online && !p.reg.IsConnected(edge.UserID)) {
		p.mu.Unlock()
		p.logger.Debug("presence_edge_stale", "user_id", edge.UserID, "seq", edge.Seq, "last", last)
		return false
	}
	p.applied[edge.UserID] = edge.Seq
	p.mu.Unlock()
	defer p.forget(edge)

	if err := p.store.SetOnline(ctx, edge.UserID, edge.Online); err != nil {
		// flag stays stale until the next successful write; the event still goes out
		p.logger.Error("presence_persist_failed", "user_id", edge.UserID, "online", edge.Online, "error", err)
	}

	eventType, state := models.EventUserOffline, "offline"
	if edge.Online {
		eventType, state = models.EventUserOnline, "online"
	}
	frame, err := models.Encode(eventType, models.PresencePayload{UserID: edge.UserID})
	if err != nil {
		p.logger.Error("presence_encode_failed", "user_id", edge.UserID, "error", err)
		return true
	}
	for _, c := range p.reg.All() {
		deliver(c, frame, p.logger)
	}
	metrics.PresenceEvents.WithLabelValues(state).Inc()
	p.logger.Info("presence_changed", "user_id", edge.UserID, "online", edge.Online, "seq", edge.Seq)
	return true
}

// forget drops the user's entry after an offline edge when no connection
// came back in the meantime.
func (p *PresenceTracker) forget(edge *PresenceEdge) {
	if edge.Online {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.applied[edge.UserID] == edge.Seq && !p.reg.IsConnected(edge.UserID) {
		delete(p.applied, edge.UserID)
	}
}
