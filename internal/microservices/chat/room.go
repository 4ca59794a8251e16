package chat

import (
	"log/slog"
	"sync"
)

// Rooms maps channel ids to the connections currently joined to them.
// Lock order is Rooms.mu then room.mu.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[int64]*room
	joined map[string]map[int64]struct{} // connID -> channels
	logger *slog.Logger
}

type room struct {
	mu      sync.Mutex
	members map[string]Conn
}

func NewRooms(logger *slog.Logger) *Rooms {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rooms{
		rooms:  make(map[int64]*room),
		joined: make(map[string]map[int64]struct{}),
		logger: logger,
	}
}

// Join adds the connection to the channel's room. No authorization happens here.
func (rs *Rooms) Join(channelID int64, c Conn) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm, ok := rs.rooms[channelID]
	if !ok {
		rm = &room{members: make(map[string]Conn)}
		rs.rooms[channelID] = rm
	}
	rm.mu.Lock()
	rm.members[c.ID()] = c
	rm.mu.Unlock()

	set, ok := rs.joined[c.ID()]
	if !ok {
		set = make(map[int64]struct{})
		rs.joined[c.ID()] = set
	}
	set[channelID] = struct{}{}
	rs.logger.Debug("room_joined", "channel_id", channelID, "conn_id", c.ID())
}

// Leave is safe when the connection is not in the room.
func (rs *Rooms) Leave(channelID int64, connID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.leaveLocked(channelID, connID)
}

func (rs *Rooms) leaveLocked(channelID int64, connID string) {
	if rm, ok := rs.rooms[channelID]; ok {
		rm.mu.Lock()
		delete(rm.members, connID)
		empty := len(rm.members) == 0
		rm.mu.Unlock()
		if empty {
			delete(rs.rooms, channelID)
		}
	}
	if set, ok := rs.joined[connID]; ok {
		delete(set, channelID)
		if len(set) == 0 {
			delete(rs.joined, connID)
		}
	}
}

// RemoveFromAll takes the connection out of every room it joined and returns
// those channel ids.
func (rs *Rooms) RemoveFromAll(connID string) []int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	set := rs.joined[connID]
	left := make([]int64, 0, len(set))
	for channelID := range set {
		left = append(left, channelID)
	}
	for _, channelID := range left {
		rs.leaveLocked(channelID, connID)
	}
	return left
}

// Broadcast enqueues frame on every current member and returns how many
// members it reached. The room stays locked for the whole fan-out so two
// broadcasts to one room reach every member in the same order.
func (rs *Rooms) Broadcast(channelID int64, frame []byte) int {
	rs.mu.RLock()
	rm, ok := rs.rooms[channelID]
	rs.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	sent := 0
	for _, c := range rm.members {
		if deliver(c, frame, rs.logger) {
			sent++
		}
	}
	return sent
}

func (rs *Rooms) IsJoined(channelID int64, connID string) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	_, ok := rs.joined[connID][channelID]
	return ok
}

// Members returns the connection ids in the room.
func (rs *Rooms) Members(channelID int64) []string {
	rs.mu.RLock()
	rm, ok := rs.rooms[channelID]
	rs.mu.RUnlock()
	if !ok {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	ids := make([]string, 0, len(rm.members))
	for id := range rm.members {
		ids = append(ids, id)
	}
	return ids
}
