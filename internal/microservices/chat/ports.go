package chat

import (
	"context"
	"time"

	"teamchat/internal/shared"
	"teamchat/pkg/models"
)

// Conn is one live transport session as the hub sees it.
type Conn interface {
	ID() string
	// Send enqueues a frame without blocking. It returns false only when
	// the outbound queue is full; frames to a closed connection are dropped.
	Send(frame []byte) bool
	// Close shuts the transport down. It must not block and must not call
	// back into the hub; teardown runs on the connection's read loop.
	Close()
}

// Authenticator verifies a bearer token before a connection is admitted.
type Authenticator interface {
	ValidateToken(token string) (*shared.AuthClaims, error)
}

// MembershipChecker consults the persisted channel membership relation.
type MembershipChecker interface {
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
}

type MessageStore interface {
	Insert(ctx context.Context, channelID, senderID int64, text string) (*models.MessageRecord, error)
}

type ReceiptStore interface {
	UpsertDelivered(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error)
	UpsertRead(ctx context.Context, messageID, userID int64, at time.Time) (time.Time, error)
	SenderOf(ctx context.Context, messageID int64) (int64, error)
}

type PresenceStore interface {
	SetOnline(ctx context.Context, userID int64, online bool) error
}
