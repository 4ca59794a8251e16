package repository

import (
	"context"
	"fmt"
	"log/slog"

	"teamchat/internal/microservices/http-api/models"
	"teamchat/internal/shared"

	"gorm.io/gorm"
)

// PresenceRepository owns the users.online flag. Postgres is the source of
// truth; the redis set is a best-effort mirror.
type PresenceRepository interface {
	SetOnline(ctx context.Context, userID int64, online bool) error
	OnlineUsers(ctx context.Context) ([]models.User, error)
	ResetAll(ctx context.Context) error
}

type presenceRepository struct {
	db     *gorm.DB
	mirror *OnlineSetRedis
	users  UserRepository
	logger *slog.Logger
}

// NewPresenceRepository accepts a nil mirror.
func NewPresenceRepository(db *gorm.DB, mirror *OnlineSetRedis, logger *slog.Logger) PresenceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &presenceRepository{
		db:     db,
		mirror: mirror,
		users:  NewUserRepository(db),
		logger: logger,
	}
}

func (r *presenceRepository) SetOnline(ctx context.Context, userID int64, online bool) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("online", online).Error
	if err != nil {
		return fmt.Errorf("%w: set online: %v", shared.ErrPersistence, err)
	}
	if err := r.mirror.Mark(ctx, userID, online); err != nil {
		r.logger.Warn("presence_mirror_failed", "user_id", userID, "online", online, "error", err)
	}
	return nil
}

// OnlineUsers reads ids from the mirror when present and falls back to the
// flag column otherwise, or when the mirror errors.
func (r *presenceRepository) OnlineUsers(ctx context.Context) ([]models.User, error) {
	if r.mirror.Enabled() {
		ids, err := r.mirror.Members(ctx)
		if err == nil {
			return r.users.FindByIDs(ctx, ids)
		}
		r.logger.Warn("presence_mirror_read_failed", "error", err)
	}
	return r.users.ListOnline(ctx)
}

// ResetAll clears stale flags left behind by an unclean shutdown.
func (r *presenceRepository) ResetAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("online = ?", true).
		Update("online", false).Error
	if err != nil {
		return fmt.Errorf("%w: reset presence: %v", shared.ErrPersistence, err)
	}
	if err := r.mirror.Reset(ctx); err != nil {
		r.logger.Warn("presence_mirror_reset_failed", "error", err)
	}
	return nil
}
