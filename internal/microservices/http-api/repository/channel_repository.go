package repository

import (
	"context"
	"fmt"

	"teamchat/internal/microservices/http-api/models"
	"teamchat/internal/shared"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChannelRepository covers channel listing and the membership relation.
type ChannelRepository interface {
	List(ctx context.Context) ([]models.ChannelWithCount, error)
	Create(ctx context.Context, name string, creatorID int64) (*models.Channel, error)
	FindByID(ctx context.Context, id int64) (*models.Channel, error)
	AddMember(ctx context.Context, channelID, userID int64) error
	RemoveMember(ctx context.Context, channelID, userID int64) error
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
	Members(ctx context.Context, channelID int64) ([]models.User, error)
}

type channelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

func (r *channelRepository) List(ctx context.Context) ([]models.ChannelWithCount, error) {
	var channels []models.ChannelWithCount
	err := r.db.WithContext(ctx).
		Table("channels c").
		Select("c.id, c.name, (SELECT COUNT(*) FROM channel_members cm WHERE cm.channel_id = c.id) AS members").
		Order("c.id ASC").
		Scan(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list channels: %v", shared.ErrPersistence, err)
	}
	return channels, nil
}

// Create inserts the channel and makes the creator its first member in one transaction
func (r *channelRepository) Create(ctx context.Context, name string, creatorID int64) (*models.Channel, error) {
	channel := &models.Channel{Name: name}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		member := &models.ChannelMember{ChannelID: channel.ID, UserID: creatorID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create channel: %v", shared.ErrPersistence, err)
	}
	return channel, nil
}

func (r *channelRepository) FindByID(ctx context.Context, id int64) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).First(&channel, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "find channel")
	}
	return &channel, nil
}

// AddMember is idempotent
func (r *channelRepository) AddMember(ctx context.Context, channelID, userID int64) error {
	member := &models.ChannelMember{ChannelID: channelID, UserID: userID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(member).Error; err != nil {
		return fmt.Errorf("%w: add member: %v", shared.ErrPersistence, err)
	}
	return nil
}

func (r *channelRepository) RemoveMember(ctx context.Context, channelID, userID int64) error {
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.ChannelMember{}).Error
	if err != nil {
		return fmt.Errorf("%w: remove member: %v", shared.ErrPersistence, err)
	}
	return nil
}

func (r *channelRepository) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: membership check: %v", shared.ErrPersistence, err)
	}
	return count > 0, nil
}

func (r *channelRepository) Members(ctx context.Context, channelID int64) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN channel_members cm ON cm.user_id = users.id").
		Where("cm.channel_id = ?", channelID).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", shared.ErrPersistence, err)
	}
	return users, nil
}
