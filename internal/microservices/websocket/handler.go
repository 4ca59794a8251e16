package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"teamchat/internal/config"
	"teamchat/internal/microservices/chat"
	"teamchat/internal/microservices/http-api/middleware"
	"teamchat/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler authenticates the request, upgrades it and starts the pumps.
// The token comes from the Authorization header or the token query param.
func Handler(hub *chat.Hub, cfg *config.Config, logger *slog.Logger) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.AllowOrigin(r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		claims, err := hub.Authenticate(middleware.ExtractToken(c))
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, shared.ErrAuthenticationRejected) {
				status = http.StatusInternalServerError
			}
			logger.Warn("ws_auth_rejected", "remote_addr", c.ClientIP(), "error", err)
			c.JSON(status, gin.H{"error": "authentication rejected"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error
			logger.Warn("ws_upgrade_failed", "error", err)
			return
		}

		client := NewClient(conn, cfg.SendBuffer, logger)
		session := hub.Admit(client, claims, "ws")

		go client.WritePump()
		// the request context ends with the handler, the session outlives it
		go client.ReadPump(context.WithoutCancel(c.Request.Context()), hub, session)
	}
}
