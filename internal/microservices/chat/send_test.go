package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"teamchat/internal/shared"
	"teamchat/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinedPair(t *testing.T, th *testHub) (*Session, *fakeConn, *fakeConn, *fakeConn) {
	t.Helper()
	th.members.allow(5, 1)
	th.members.allow(5, 2)

	s1, c1 := th.connect(t, "c1", 1)
	s2, c2 := th.connect(t, "c2", 2)
	_, other := th.connect(t, "c3", 3)
	th.send(t, s1, models.EventJoinChannel, models.ChannelPayload{ChannelID: 5})
	th.send(t, s2, models.EventJoinChannel, models.ChannelPayload{ChannelID: 5})
	for _, c := range []*fakeConn{c1, c2, other} {
		c.reset()
	}
	return s1, c1, c2, other
}

func TestScenarioB_SendPersistsThenBroadcasts(t *testing.T) {
	th := newTestHub()
	s1, c1, c2, other := joinedPair(t, th)

	th.send(t, s1, models.EventSendMessage, models.SendMessagePayload{ChannelID: 5, UserID: 1, Text: "hi"})

	assert.Equal(t, 1, th.messages.count())
	for _, c := range []*fakeConn{c1, c2} {
		got := c.eventsOf(t, models.EventNewMessage)
		require.Len(t, got, 1, c.id)
		rec := decodeData[models.MessageRecord](t, got[0])
		assert.Equal(t, int64(42), rec.ID)
		assert.Equal(t, int64(5), rec.ChannelID)
		assert.Equal(t, "hi", rec.Text)
		assert.Equal(t, "user1", rec.SenderName)
	}
	assert.Empty(t, other.events(t))
}

func TestScenarioD_BlankTextRejected(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		th := newTestHub()
		s1, c1, c2, _ := joinedPair(t, th)

		th.send(t, s1, models.EventSendMessage, models.SendMessagePayload{ChannelID: 5, UserID: 1, Text: text})

		assert.Zero(t, th.messages.count())
		assert.Empty(t, c2.events(t))
		errs := c1.eventsOf(t, models.EventError)
		require.Len(t, errs, 1)
		assert.Equal(t, models.ReasonValidationFailure, decodeData[models.ErrorPayload](t, errs[0]).Reason)
		assert.Empty(t, c1.eventsOf(t, models.EventNewMessage))
	}
}

func TestScenarioE_PersistFailureNotifiesOriginOnly(t *testing.T) {
	th := newTestHub()
	s1, c1, c2, other := joinedPair(t, th)
	th.messages.err = errStoreDown

	th.send(t, s1, models.EventSendMessage, models.SendMessagePayload{ChannelID: 5, UserID: 1, Text: "hi"})

	errs := c1.eventsOf(t, models.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ReasonMessageNotSaved, decodeData[models.ErrorPayload](t, errs[0]).Reason)
	assert.Empty(t, c1.eventsOf(t, models.EventNewMessage))
	assert.Empty(t, c2.events(t))
	assert.Empty(t, other.events(t))
}

func TestSendPipeline_TrimsAndLimitsLength(t *testing.T) {
	store := newFakeMessages(1)
	rooms := NewRooms(discardLogger())
	p := NewSendPipeline(store, rooms, discardLogger())
	ctx := context.Background()

	rec, err := p.Send(ctx, 5, 1, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Text)

	_, err = p.Send(ctx, 5, 1, strings.Repeat("é", MaxMessageLength))
	assert.NoError(t, err)

	_, err = p.Send(ctx, 5, 1, strings.Repeat("a", MaxMessageLength+1))
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Equal(t, 2, store.count())
}

func TestSend_RequiresJoinedRoom(t *testing.T) {
	th := newTestHub()
	s, c := th.connect(t, "c1", 1)
	c.reset()

	th.send(t, s, models.EventSendMessage, models.SendMessagePayload{ChannelID: 5, UserID: 1, Text: "hi"})

	errs := c.eventsOf(t, models.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ReasonMembershipDenied, decodeData[models.ErrorPayload](t, errs[0]).Reason)
	assert.Zero(t, th.messages.count())
}

func TestSend_ForeignUserIDRejected(t *testing.T) {
	th := newTestHub()
	s1, c1, _, _ := joinedPair(t, th)

	th.send(t, s1, models.EventSendMessage, models.SendMessagePayload{ChannelID: 5, UserID: 2, Text: "spoof"})

	errs := c1.eventsOf(t, models.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, models.ReasonValidationFailure, decodeData[models.ErrorPayload](t, errs[0]).Reason)
	assert.Zero(t, th.messages.count())
}
