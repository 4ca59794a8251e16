package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamchat/database"
	"teamchat/internal/config"
	"teamchat/internal/microservices/chat"
	"teamchat/internal/microservices/http-api/repository"
	"teamchat/internal/microservices/http-api/service"
	"teamchat/internal/microservices/tcp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", "error", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var mirror *repository.OnlineSetRedis
	if cfg.RedisURL != "" {
		mirror, err = repository.NewOnlineSetRedis(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			// the database flag alone is enough to serve presence
			logger.Warn("redis_unavailable", "error", err)
			mirror = nil
		} else {
			defer mirror.Close()
			logger.Info("redis_connected")
		}
	}

	userRepo := repository.NewUserRepository(db.Gorm)
	channelRepo := repository.NewChannelRepository(db.Gorm)
	messageRepo := repository.NewMessageRepository(db.Gorm)
	receiptRepo := repository.NewReceiptRepository(db.SQL)
	presenceRepo := repository.NewPresenceRepository(db.Gorm, mirror, logger)

	// nobody is connected to a process that just started
	if err := presenceRepo.ResetAll(ctx); err != nil {
		return fmt.Errorf("failed to reset presence: %w", err)
	}

	authService := service.NewAuthService(userRepo, cfg)
	channelService := service.NewChannelService(channelRepo)
	messageService := service.NewMessageService(messageRepo)
	userService := service.NewUserService(presenceRepo)

	hub := chat.NewHub(chat.Deps{
		Auth:      authService,
		Members:   channelService,
		Messages:  messageRepo,
		Receipts:  receiptRepo,
		Presence:  presenceRepo,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		AckRate:   cfg.AckRate,
		AckBurst:  cfg.AckBurst,
	})

	router := newRouter(cfg, routerDeps{
		auth:     authService,
		channels: channelService,
		messages: messageService,
		users:    userService,
		hub:      hub,
		db:       db.SQL,
		logger:   logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("http_server_started", "port", cfg.HTTPPort, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	var tcpServer *tcp.TCPServer
	if cfg.TCPPort > 0 {
		tcpServer = tcp.NewServer(fmt.Sprintf(":%d", cfg.TCPPort), hub, cfg.SendBuffer, logger)
		go func() {
			if err := tcpServer.Start(ctx); err != nil {
				errChan <- fmt.Errorf("tcp server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_incomplete", "error", err)
	}
	if tcpServer != nil {
		tcpServer.Stop()
	}
	// websocket sessions are hijacked, so srv.Shutdown does not wait for them;
	// the hub does, so offline writes land before the database closes
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("hub_shutdown_incomplete", "error", err)
	}

	logger.Info("server_stopped_gracefully")
	return nil
}
