package handler

import (
	"context"
	"net/http"
	"time"

	"teamchat/internal/microservices/http-api/dto"
	"teamchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    service.UserService
	channels service.ChannelService
}

func NewUserHandler(users service.UserService, channels service.ChannelService) *UserHandler {
	return &UserHandler{users: users, channels: channels}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/online", h.Online)
	rg.GET("/channel/:channelId/members", h.ChannelMembers)
}

func (h *UserHandler) Online(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.OnlineUsers(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OnlineUsersResponse{Users: users})
}

func (h *UserHandler) ChannelMembers(c *gin.Context) {
	channelID, ok := parseIDParam(c, "channelId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	members, err := h.channels.Members(ctx, channelID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MembersResponse{Members: members})
}
