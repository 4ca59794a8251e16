package dto

import "teamchat/pkg/models"

// request/response bodies the CLI exchanges with the chat server

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      models.User `json:"user"`
}

type CreateChannelRequest struct {
	Name string `json:"name"`
}

type ChannelListResponse struct {
	Channels []models.Channel `json:"channels"`
}

type JoinChannelResponse struct {
	Message string        `json:"message"`
	Members []models.User `json:"members"`
	Count   int           `json:"count"`
}

type MembersResponse struct {
	Members []models.User `json:"members"`
}

type OnlineUsersResponse struct {
	Users []models.User `json:"users"`
}

type HistoryResponse struct {
	Messages []models.MessageRecord `json:"messages"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}
