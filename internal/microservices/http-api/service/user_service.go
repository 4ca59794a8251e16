package service

import (
	"context"

	"teamchat/internal/microservices/http-api/models"
	"teamchat/internal/microservices/http-api/repository"
	pub "teamchat/pkg/models"
)

type UserService interface {
	OnlineUsers(ctx context.Context) ([]pub.User, error)
}

type userService struct {
	presence repository.PresenceRepository
}

func NewUserService(presence repository.PresenceRepository) UserService {
	return &userService{presence: presence}
}

func (s *userService) OnlineUsers(ctx context.Context) ([]pub.User, error) {
	users, err := s.presence.OnlineUsers(ctx)
	if err != nil {
		return nil, err
	}
	// email is not part of the online listing
	out := toPublicUsers(users)
	for i := range out {
		out[i].Email = ""
	}
	return out, nil
}

func toPublicUsers(users []models.User) []pub.User {
	out := make([]pub.User, 0, len(users))
	for _, u := range users {
		out = append(out, ToPublicUser(&u))
	}
	return out
}

// ToPublicUser strips persistence-only fields.
func ToPublicUser(u *models.User) pub.User {
	return pub.User{ID: u.ID, Name: u.Name, Email: u.Email, Online: u.Online}
}
