package chat

import (
	"log/slog"
	"slices"
	"sync"

	"teamchat/internal/metrics"
	"teamchat/internal/shared"
)

// PresenceEdge is a 0->1 or 1->0 transition in a user's live connection count.
// Seq orders edges across the whole registry.
type PresenceEdge struct {
	UserID int64
	Online bool
	Seq    uint64
}

// Registry owns every connection<->user mapping. A user is present in byUser
// iff it has at least one live identified connection.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Conn           // every admitted connection
	userOf map[string]int64          // connID -> bound user
	byUser map[int64]map[string]Conn // user -> live connections
	seq    uint64
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conns:  make(map[string]Conn),
		userOf: make(map[string]int64),
		byUser: make(map[int64]map[string]Conn),
		logger: logger,
	}
}

// Add admits a connection so it receives global presence events.
func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
	r.logger.Debug("client_added", "conn_id", c.ID())
}

// Remove forgets an admitted connection. It does not touch the user binding.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
	r.logger.Debug("client_removed", "conn_id", connID)
}

// Register binds the connection to userID. Re-registering the same user is a
// no-op; binding to a different user fails with shared.ErrIdentityFixed.
// The returned edge is non-nil only on the user's first connection.
func (r *Registry) Register(c Conn, userID int64) (*PresenceEdge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if bound, ok := r.userOf[id]; ok {
		if bound == userID {
			return nil, nil
		}
		return nil, shared.ErrIdentityFixed
	}

	r.conns[id] = c
	r.userOf[id] = userID
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]Conn)
		r.byUser[userID] = set
	}
	set[id] = c

	r.logger.Info("connection_identified", "conn_id", id, "user_id", userID, "connections", len(set))
	if len(set) != 1 {
		return nil, nil
	}
	metrics.UsersOnline.Set(float64(len(r.byUser)))
	return r.nextEdge(userID, true), nil
}

// Unregister drops the connection's binding. It reports the user that was
// bound, if any, and an offline edge when that was the user's last connection.
func (r *Registry) Unregister(connID string) (int64, *PresenceEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.userOf[connID]
	if !ok {
		return 0, nil
	}
	delete(r.userOf, connID)

	set := r.byUser[userID]
	delete(set, connID)
	if len(set) > 0 {
		return userID, nil
	}
	delete(r.byUser, userID)
	metrics.UsersOnline.Set(float64(len(r.byUser)))
	return userID, r.nextEdge(userID, false)
}

// caller holds r.mu
func (r *Registry) nextEdge(userID int64, online bool) *PresenceEdge {
	r.seq++
	return &PresenceEdge{UserID: userID, Online: online, Seq: r.seq}
}

// IsConnected reports whether the user has at least one live connection.
func (r *Registry) IsConnected(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsOf returns a snapshot of the user's live connections.
func (r *Registry) ConnectionsOf(userID int64) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byUser[userID]
	out := make([]Conn, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

func (r *Registry) UserOf(connID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.userOf[connID]
	return userID, ok
}

// All returns a snapshot of every admitted connection.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// OnlineUserIDs lists users with a live connection, ascending.
func (r *Registry) OnlineUserIDs() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
