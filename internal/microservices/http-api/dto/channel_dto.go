package dto

import "teamchat/pkg/models"

// CreateChannelRequest: body of POST /api/channels
type CreateChannelRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type ChannelListResponse struct {
	Channels []models.Channel `json:"channels"`
}

// JoinChannelResponse lists the members after the join
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

// HistoryResponse: body of GET /api/messages/:channelId, oldest first
type HistoryResponse struct {
	Messages []models.MessageRecord `json:"messages"`
}
