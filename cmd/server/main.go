package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/nekoinbox/backend/internal/api"
	"github.com/nekoinbox/backend/internal/config"
	"github.com/nekoinbox/backend/internal/db"
	"github.com/nekoinbox/backend/internal/middleware"
	"github.com/nekoinbox/backend/internal/notify"
	"github.com/nekoinbox/backend/internal/observ"
	"github.com/nekoinbox/backend/internal/repository"
	"github.com/nekoinbox/backend/internal/repository/postgres"
	"github.com/nekoinbox/backend/internal/repository/redisstore"
	"github.com/nekoinbox/backend/internal/verify"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set, admin login disabled")
	}
	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN not set, message submission disabled")
	}

	// Startup has no request deadline; connecting takes as long as it
	// takes, and each request later carries its own context.
	ctx := context.Background()

	// The two backends implement the same repository contract; which
	// one runs is purely a deployment decision.
	var repo repository.MessageRepository
	switch cfg.Backend {
	case config.BackendRedis:
		client, err := db.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()

		store := redisstore.NewMessageStore(client, logger)
		// One-shot legacy layout migration; the store itself records
		// completion, so every instance can attempt it safely. A
		// failure here is logged but must not keep the board down.
		if err := store.Migrate(ctx); err != nil {
			logger.Error("legacy migration failed", zap.Error(err))
		}
		repo = store

	case config.BackendPostgres:
		database, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if err := postgres.Bootstrap(ctx, database.Pool()); err != nil {
			return err
		}
		repo = postgres.NewMessageStore(database.Pool())

	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Backend)
	}

	verifier := verify.NewTurnstile(cfg.TurnstileSecretKey, "", logger)
	mailer := notify.NewMailer(
		cfg.SMTPHost, cfg.SMTPPort,
		cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.SenderEmail, cfg.RecipientEmail,
	)

	messageHandler := api.NewMessageHandler(repo, cfg.APIToken, logger)
	adminHandler := api.NewAdminHandler(repo, cfg.AdminPassword, cfg.JWTSecret, cfg.TokenLifetime, logger)
	publicHandler := api.NewPublicHandler(repo, verifier, mailer, cfg.TurnstileSiteKey, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())
	srv.Use(middleware.CORS(cfg.FrontendURL))

	srv.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	srv.GET("/api/messages", messageHandler.List)
	srv.POST("/api/messages", messageHandler.Create)
	srv.POST("/api/login", adminHandler.Login)
	srv.POST("/api/vote", publicHandler.Vote)
	srv.POST("/api/report", publicHandler.Report)
	srv.GET("/api/config", publicHandler.Config)

	admin := srv.Group("/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	admin.POST("/reply", adminHandler.Reply)
	admin.POST("/tag", adminHandler.Tag)
	admin.DELETE("/messages", adminHandler.Delete)

	logger.Info("starting feedback board",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("backend", cfg.Backend),
	)

	return srv.Run(":" + cfg.Port)
}
