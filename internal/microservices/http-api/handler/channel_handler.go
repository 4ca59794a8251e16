package handler

import (
	"context"
	"net/http"
	"time"

	"teamchat/internal/microservices/http-api/dto"
	"teamchat/internal/microservices/http-api/middleware"
	"teamchat/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	svc service.ChannelService
}

func NewChannelHandler(svc service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// RegisterRoutes expects rg to sit behind AuthMiddleware.
func (h *ChannelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/:id/join", h.Join)
	rg.POST("/:id/leave", h.Leave)
}

func (h *ChannelHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	channels, err := h.svc.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ChannelListResponse{Channels: channels})
}

func (h *ChannelHandler) Create(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	var req dto.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing channel name"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	channel, err := h.svc.Create(ctx, req.Name, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (h *ChannelHandler) Join(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	channelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	members, err := h.svc.Join(ctx, channelID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.JoinChannelResponse{Message: "Joined", Members: members, Count: len(members)})
}

func (h *ChannelHandler) Leave(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	channelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Leave(ctx, channelID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left"})
}
