package service

import (
	"context"

	"teamchat/internal/microservices/http-api/models"
	pub "teamchat/pkg/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) ListOnline(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

// MockChannelRepository mocks the ChannelRepository interface
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) List(ctx context.Context) ([]models.ChannelWithCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ChannelWithCount), args.Error(1)
}

func (m *MockChannelRepository) Create(ctx context.Context, name string, creatorID int64) (*models.Channel, error) {
	args := m.Called(ctx, name, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *MockChannelRepository) FindByID(ctx context.Context, id int64) (*models.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *MockChannelRepository) AddMember(ctx context.Context, channelID, userID int64) error {
	return m.Called(ctx, channelID, userID).Error(0)
}

func (m *MockChannelRepository) RemoveMember(ctx context.Context, channelID, userID int64) error {
	return m.Called(ctx, channelID, userID).Error(0)
}

func (m *MockChannelRepository) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	args := m.Called(ctx, channelID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChannelRepository) Members(ctx context.Context, channelID int64) ([]models.User, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).([]models.User), args.Error(1)
}

// MockMessageRepository mocks the MessageRepository interface
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Insert(ctx context.Context, channelID, senderID int64, text string) (*pub.MessageRecord, error) {
	args := m.Called(ctx, channelID, senderID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pub.MessageRecord), args.Error(1)
}

func (m *MockMessageRepository) FetchPage(ctx context.Context, channelID int64, page, limit int) ([]pub.MessageRecord, error) {
	args := m.Called(ctx, channelID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pub.MessageRecord), args.Error(1)
}

// MockPresenceRepository mocks the PresenceRepository interface
type MockPresenceRepository struct {
	mock.Mock
}

func (m *MockPresenceRepository) SetOnline(ctx context.Context, userID int64, online bool) error {
	return m.Called(ctx, userID, online).Error(0)
}

func (m *MockPresenceRepository) OnlineUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockPresenceRepository) ResetAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
