package chat

import (
	"context"
	"testing"

	"teamchat/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two connections for one user: one online event, silence on the first
// disconnect, one offline event on the last.
func TestScenarioA_PresenceEdges(t *testing.T) {
	th := newTestHub()
	observer := newFakeConn("observer")
	th.Registry.Add(observer)

	s1, _ := th.connect(t, "c1", 1)
	s2, _ := th.connect(t, "c2", 1)

	online := observer.eventsOf(t, models.EventUserOnline)
	require.Len(t, online, 1)
	assert.Equal(t, int64(1), decodeData[models.PresencePayload](t, online[0]).UserID)
	assert.True(t, th.presence.flag(1))

	th.Teardown(s1)
	assert.Empty(t, observer.eventsOf(t, models.EventUserOffline))

	th.Teardown(s2)
	offline := observer.eventsOf(t, models.EventUserOffline)
	require.Len(t, offline, 1)
	assert.Equal(t, int64(1), decodeData[models.PresencePayload](t, offline[0]).UserID)
	assert.False(t, th.presence.flag(1))
}

func TestPresence_StaleEdgeDropped(t *testing.T) {
	store := newFakePresence()
	reg := NewRegistry(discardLogger())
	tracker := NewPresenceTracker(store, reg, discardLogger())
	observer := newFakeConn("observer")
	reg.Add(observer)

	ctx := context.Background()
	// the offline edge (seq 2) lands before the online edge it followed (seq 1)
	assert.True(t, tracker.Apply(ctx, &PresenceEdge{UserID: 5, Online: false, Seq: 2}))
	assert.False(t, tracker.Apply(ctx, &PresenceEdge{UserID: 5, Online: true, Seq: 1}))

	assert.False(t, store.flag(5))
	events := observer.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventUserOffline, events[0].Type)
}

func TestPresence_PersistFailureStillBroadcasts(t *testing.T) {
	store := newFakePresence()
	store.err = errStoreDown
	reg := NewRegistry(discardLogger())
	tracker := NewPresenceTracker(store, reg, discardLogger())
	observer := newFakeConn("observer")
	reg.Add(observer)
	edge, err := reg.Register(newFakeConn("c9"), 9)
	require.NoError(t, err)

	assert.True(t, tracker.Apply(context.Background(), edge))
	assert.Len(t, observer.eventsOf(t, models.EventUserOnline), 1)
	assert.Len(t, store.calls, 1)
}

func TestPresence_NilEdgeIgnored(t *testing.T) {
	tracker := NewPresenceTracker(newFakePresence(), NewRegistry(discardLogger()), discardLogger())
	assert.False(t, tracker.Apply(context.Background(), nil))
}

func TestPresence_ReconnectRaceEndsOnline(t *testing.T) {
	th := newTestHub()

	s1, _ := th.connect(t, "c1", 3)
	// c1 drops and c2 arrives; the edges apply in registry order
	th.Teardown(s1)
	th.connect(t, "c2", 3)

	assert.True(t, th.presence.flag(3))
	assert.Equal(t, []int64{3}, th.Registry.OnlineUserIDs())
}

func (p *PresenceTracker) tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.applied)
}

func TestPresence_ForgetsUsersWhoLeft(t *testing.T) {
	th := newTestHub()

	s1, _ := th.connect(t, "c1", 1)
	s2, _ := th.connect(t, "c2", 2)
	assert.Equal(t, 2, th.Presence.tracked())

	th.Teardown(s1)
	assert.Equal(t, 1, th.Presence.tracked())
	th.Teardown(s2)
	assert.Equal(t, 0, th.Presence.tracked())

	// a returning user starts fresh and still goes online
	th.connect(t, "c3", 1)
	assert.True(t, th.presence.flag(1))
	assert.Equal(t, 1, th.Presence.tracked())
}

func TestPresence_KeepsEntryWhileReconnected(t *testing.T) {
	store := newFakePresence()
	reg := NewRegistry(discardLogger())
	tracker := NewPresenceTracker(store, reg, discardLogger())
	ctx := context.Background()

	first, _ := reg.Register(newFakeConn("a"), 4)
	require.True(t, tracker.Apply(ctx, first))
	_, offline := reg.Unregister("a")
	second, _ := reg.Register(newFakeConn("b"), 4)

	// the offline edge lands while the user is already back
	assert.True(t, tracker.Apply(ctx, offline))
	assert.Equal(t, 1, tracker.tracked())
	assert.True(t, tracker.Apply(ctx, second))
	assert.True(t, store.flag(4))
}
