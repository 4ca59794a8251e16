package handler

import (
	"context"
	"time"

	"teamchat/internal/microservices/http-api/middleware"
	"teamchat/internal/microservices/http-api/models"
	"teamchat/internal/shared"
	pub "teamchat/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, name, email, password string) (string, *models.User, error) {
	args := m.Called(name, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*shared.AuthClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.AuthClaims), args.Error(1)
}

func (m *MockAuthService) TokenTTL() time.Duration {
	return time.Hour
}

// MockChannelService mocks the ChannelService interface
type MockChannelService struct {
	mock.Mock
}

func (m *MockChannelService) List(ctx context.Context) ([]pub.Channel, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pub.Channel), args.Error(1)
}

func (m *MockChannelService) Create(ctx context.Context, name string, creatorID int64) (*pub.Channel, error) {
	args := m.Called(name, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pub.Channel), args.Error(1)
}

func (m *MockChannelService) Join(ctx context.Context, channelID, userID int64) ([]pub.User, error) {
	args := m.Called(channelID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pub.User), args.Error(1)
}

func (m *MockChannelService) Leave(ctx context.Context, channelID, userID int64) error {
	return m.Called(channelID, userID).Error(0)
}

func (m *MockChannelService) Members(ctx context.Context, channelID int64) ([]pub.User, error) {
	args := m.Called(channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pub.User), args.Error(1)
}

func (m *MockChannelService) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	args := m.Called(channelID, userID)
	return args.Bool(0), args.Error(1)
}

// MockMessageService mocks the MessageService interface
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) History(ctx context.Context, channelID int64, page, limit int) ([]pub.MessageRecord, error) {
	args := m.Called(channelID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pub.MessageRecord), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) OnlineUsers(ctx context.Context) ([]pub.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pub.User), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// asUser stands in for AuthMiddleware
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Next()
	}
}
