package main

import (
	"log/slog"
	"net/http"
	"time"

	"teamchat/internal/config"
	"teamchat/internal/metrics"
	"teamchat/internal/microservices/chat"
	"teamchat/internal/microservices/http-api/handler"
	"teamchat/internal/microservices/http-api/middleware"
	"teamchat/internal/microservices/http-api/service"
	"teamchat/internal/microservices/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routerDeps struct {
	auth     service.AuthService
	channels service.ChannelService
	messages service.MessageService
	users    service.UserService
	hub      *chat.Hub
	db       handler.Pinger
	logger   *slog.Logger
}

func newRouter(cfg *config.Config, d routerDeps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  cfg.AllowOrigin,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.PrometheusEnabled {
		r.Use(metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", handler.Health(d.db))

	api := r.Group("/api")
	handler.NewAuthHandler(d.auth).RegisterRoutes(api.Group("/auth"))

	protected := api.Group("", middleware.AuthMiddleware(d.auth))
	handler.NewChannelHandler(d.channels).RegisterRoutes(protected.Group("/channels"))
	handler.NewMessageHandler(d.messages).RegisterRoutes(protected.Group("/messages"))
	handler.NewUserHandler(d.users, d.channels).RegisterRoutes(protected.Group("/users"))

	r.GET("/ws", websocket.Handler(d.hub, cfg, d.logger))

	return r
}
