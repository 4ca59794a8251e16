package service

import (
	"context"
	"fmt"
	"strings"

	"teamchat/internal/microservices/http-api/repository"
	"teamchat/internal/shared"
	pub "teamchat/pkg/models"
)

// ChannelService exposes channel CRUD and answers membership questions for
// the realtime join path.
type ChannelService interface {
	List(ctx context.Context) ([]pub.Channel, error)
	Create(ctx context.Context, name string, creatorID int64) (*pub.Channel, error)
	Join(ctx context.Context, channelID, userID int64) ([]pub.User, error)
	Leave(ctx context.Context, channelID, userID int64) error
	Members(ctx context.Context, channelID int64) ([]pub.User, error)
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
}

type channelService struct {
	repo repository.ChannelRepository
}

func NewChannelService(repo repository.ChannelRepository) ChannelService {
	return &channelService{repo: repo}
}

func (s *channelService) List(ctx context.Context) ([]pub.Channel, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	channels := make([]pub.Channel, 0, len(rows))
	for _, row := range rows {
		channels = append(channels, pub.Channel{ID: row.ID, Name: row.Name, Members: row.Members})
	}
	return channels, nil
}

func (s *channelService) Create(ctx context.Context, name string, creatorID int64) (*pub.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing channel name", shared.ErrValidation)
	}
	channel, err := s.repo.Create(ctx, name, creatorID)
	if err != nil {
		return nil, err
	}
	return &pub.Channel{ID: channel.ID, Name: channel.Name, Members: 1}, nil
}

// Join adds the membership row if absent and returns the resulting member list.
func (s *channelService) Join(ctx context.Context, channelID, userID int64) ([]pub.User, error) {
	if _, err := s.repo.FindByID(ctx, channelID); err != nil {
		return nil, err
	}
	if err := s.repo.AddMember(ctx, channelID, userID); err != nil {
		return nil, err
	}
	return s.Members(ctx, channelID)
}

func (s *channelService) Leave(ctx context.Context, channelID, userID int64) error {
	return s.repo.RemoveMember(ctx, channelID, userID)
}

func (s *channelService) Members(ctx context.Context, channelID int64) ([]pub.User, error) {
	users, err := s.repo.Members(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return toPublicUsers(users), nil
}

func (s *channelService) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	return s.repo.IsMember(ctx, channelID, userID)
}
