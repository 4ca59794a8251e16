package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"teamchat/internal/metrics"
	"teamchat/internal/shared"
	"teamchat/pkg/models"
)

// ReceiptCoordinator records delivery and read acknowledgements and pushes
// the stored timestamp to the message author's live connections.
type ReceiptCoordinator struct {
	store  ReceiptStore
	reg    *Registry
	logger *slog.Logger
	now    func() time.Time
}

func NewReceiptCoordinator(store ReceiptStore, reg *Registry, logger *slog.Logger) *ReceiptCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptCoordinator{
		store:  store,
		reg:    reg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (rc *ReceiptCoordinator) MarkDelivered(ctx context.Context, messageID, userID int64) error {
	return rc.mark(ctx, models.ReceiptDelivered, messageID, userID)
}

func (rc *ReceiptCoordinator) MarkRead(ctx context.Context, messageID, userID int64) error {
	return rc.mark(ctx, models.ReceiptRead, messageID, userID)
}

// mark returns nil when the update was routed or silently dropped, and a
// shared.ErrPersistence wrap when a store call failed.
func (rc *ReceiptCoordinator) mark(ctx context.Context, kind models.ReceiptKind, messageID, userID int64) error {
	if messageID <= 0 || userID <= 0 {
		return fmt.Errorf("%w: invalid message or user id", shared.ErrValidation)
	}

	upsert := rc.store.UpsertDelivered
	if kind == models.ReceiptRead {
		upsert = rc.store.UpsertRead
	}
	stored, err := upsert(ctx, messageID, userID, rc.now())
	if err != nil {
		return rc.fail(kind, messageID, userID, "receipt_persist_failed", err)
	}

	senderID, err := rc.store.SenderOf(ctx, messageID)
	if err != nil {
		return rc.fail(kind, messageID, userID, "receipt_sender_lookup_failed", err)
	}

	conns := rc.reg.ConnectionsOf(senderID)
	if len(conns) == 0 {
		metrics.ReceiptsRecorded.WithLabelValues(string(kind), "sender_offline").Inc()
		return nil
	}

	var frame []byte
	if kind == models.ReceiptRead {
		frame, err = models.Encode(models.EventMessageReadUpdate, models.ReadUpdatePayload{
			MessageID: messageID, UserID: userID, ReadAt: stored,
		})
	} else {
		frame, err = models.Encode(models.EventMessageDeliveryUpdate, models.DeliveryUpdatePayload{
			MessageID: messageID, UserID: userID, DeliveredAt: stored,
		})
	}
	if err != nil {
		return err
	}
	for _, c := range conns {
		deliver(c, frame, rc.logger)
	}
	metrics.ReceiptsRecorded.WithLabelValues(string(kind), "notified").Inc()
	rc.logger.Debug("receipt_routed", "kind", kind, "message_id", messageID, "user_id", userID, "sender_id", senderID)
	return nil
}

func (rc *ReceiptCoordinator) fail(kind models.ReceiptKind, messageID, userID int64, event string, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		metrics.ReceiptsRecorded.WithLabelValues(string(kind), "not_found").Inc()
		rc.logger.Debug("receipt_dropped", "kind", kind, "message_id", messageID, "user_id", userID)
		return nil
	}
	metrics.ReceiptsRecorded.WithLabelValues(string(kind), "failed").Inc()
	rc.logger.Error(event, "kind", kind, "message_id", messageID, "user_id", userID, "error", err)
	if errors.Is(err, shared.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
}
