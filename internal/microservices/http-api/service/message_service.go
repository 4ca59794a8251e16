package service

import (
	"context"
	"fmt"

	"teamchat/internal/microservices/http-api/repository"
	"teamchat/internal/shared"
	pub "teamchat/pkg/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type MessageService interface {
	History(ctx context.Context, channelID int64, page, limit int) ([]pub.MessageRecord, error)
}

type messageService struct {
	repo repository.MessageRepository
}

func NewMessageService(repo repository.MessageRepository) MessageService {
	return &messageService{repo: repo}
}

// History returns one page oldest first, receipts included.
func (s *messageService) History(ctx context.Context, channelID int64, page, limit int) ([]pub.MessageRecord, error) {
	if channelID <= 0 {
		return nil, fmt.Errorf("%w: invalid channel id", shared.ErrValidation)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.repo.FetchPage(ctx, channelID, page, limit)
}
