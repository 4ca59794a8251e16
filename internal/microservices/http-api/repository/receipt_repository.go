package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"teamchat/internal/shared"

	"github.com/jackc/pgx/v5/pgconn"
)

// LEAST ignores NULL, so a first write fills the slot and later writes only move it earlier.
const (
	upsertDeliveredSQL = `INSERT INTO message_receipts (message_id, user_id, delivered_at)
VALUES ($1, $2, $3)
ON CONFLICT (message_id, user_id)
DO UPDATE SET delivered_at = LEAST(message_receipts.delivered_at, EXCLUDED.delivered_at)
RETURNING delivered_at`

	upsertReadSQL = `INSERT INTO message_receipts (message_id, user_id, read_at)
VALUES ($1, $2, $3)
ON CONFLICT (message_id, user_id)
DO UPDATE SET read_at = LEAST(message_receipts.read_at, EXCLUDED.read_at)
RETURNING read_at`

	senderOfSQL = `SELECT user_id FROM messages WHERE id = $1`

	pgForeignKeyViolation = "23503"
)

// ReceiptRepository records per-user delivery and read timestamps.
type ReceiptRepository interface {
	UpsertDelivered(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error)
	UpsertRead(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error)
	SenderOf(ctx context.Context, messageID int64) (int64, error)
}

type receiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) UpsertDelivered(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error) {
	return r.upsert(ctx, upsertDeliveredSQL, messageID, userID, at)
}

func (r *receiptRepository) UpsertRead(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error) {
	return r.upsert(ctx, upsertReadSQL, messageID, userID, at)
}

func (r *receiptRepository) upsert(ctx context.Context, query string, messageID, userID int64, at time.Time) (time.Time, error) {
	var stored time.Time
	if err := r.db.QueryRowContext(ctx, query, messageID, userID, at).Scan(&stored); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return time.Time{}, fmt.Errorf("receipt for message %d user %d: %w", messageID, userID, shared.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("%w: upsert receipt: %v", shared.ErrPersistence, err)
	}
	return stored, nil
}

func (r *receiptRepository) SenderOf(ctx context.Context, messageID int64) (int64, error) {
	var senderID int64
	if err := r.db.QueryRowContext(ctx, senderOfSQL, messageID).Scan(&senderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("message %d: %w", messageID, shared.ErrNotFound)
		}
		return 0, fmt.Errorf("%w: sender lookup: %v", shared.ErrPersistence, err)
	}
	return senderID, nil
}
