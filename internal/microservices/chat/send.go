package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"teamchat/internal/metrics"
	"teamchat/internal/shared"
	"teamchat/pkg/models"
)

// MaxMessageLength bounds message text, counted in runes after trimming.
const MaxMessageLength = 2000

// SendPipeline validates, persists and fans out one message.
type SendPipeline struct {
	store  MessageStore
	rooms  *Rooms
	logger *slog.Logger
}

func NewSendPipeline(store MessageStore, rooms *Rooms, logger *slog.Logger) *SendPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendPipeline{store: store, rooms: rooms, logger: logger}
}

// Send persists text and broadcasts the hydrated record to the channel room.
// Nothing is broadcast unless the insert succeeded. Errors wrap
// shared.ErrValidation or shared.ErrPersistence; reporting them to the
// originating connection is the caller's job.
func (p *SendPipeline) Send(ctx context.Context, channelID, senderID int64, text string) (*models.MessageRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.MessagesSent.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: message text is empty", shared.ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		metrics.MessagesSent.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: message text is %d characters, limit %d", shared.ErrValidation, n, MaxMessageLength)
	}
	if channelID <= 0 || senderID <= 0 {
		metrics.MessagesSent.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: invalid channel or sender id", shared.ErrValidation)
	}

	rec, err := p.store.Insert(ctx, channelID, senderID, text)
	if err != nil {
		metrics.MessagesSent.WithLabelValues("not_saved").Inc()
		p.logger.Error("message_persist_failed", "channel_id", channelID, "user_id", senderID, "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	frame, err := models.Encode(models.EventNewMessage, rec)
	if err != nil {
		return nil, err
	}
	reached := p.rooms.Broadcast(channelID, frame)
	metrics.MessagesSent.WithLabelValues("broadcast").Inc()
	p.logger.Info("message_broadcast", "message_id", rec.ID, "channel_id", channelID, "user_id", senderID, "recipients", reached)
	return rec, nil
}
