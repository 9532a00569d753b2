package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spacecards/economy-api/internal/config"
	"github.com/spacecards/economy-api/internal/domain/card"
	"github.com/spacecards/economy-api/internal/domain/marketplace"
	"github.com/spacecards/economy-api/internal/domain/notification"
	"github.com/spacecards/economy-api/internal/domain/user"
	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/middleware"
	"github.com/spacecards/economy-api/internal/pkg/database"
	"github.com/spacecards/economy-api/internal/pkg/jwt"
	"github.com/spacecards/economy-api/internal/pkg/logger"
	"github.com/spacecards/economy-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting SpaceCards economy API")

	policy, err := cfg.FeePolicy()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fee policy")
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	images, err := storage.New(cfg.StorageConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image storage")
	}
	if images == nil {
		log.Warn().Msg("Image storage not configured, card images are stored as given")
	}

	store := database.NewStore(db,
		database.WithMaxAttempts(cfg.DBTxMaxAttempts),
		database.WithRetryOnConstraint(card.EditionConstraint),
	)
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Services ----------
	userService := user.NewService(user.NewRepository(db), cfg.UserSyncTTL)
	walletRepo := wallet.NewRepository(db)
	walletService := wallet.NewService(store, walletRepo, policy)

	var publisher notification.RealtimePublisher
	if redisClient != nil {
		publisher = notification.NewRedisPublisher(redisClient)
	}
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, publisher)

	cardService := card.NewService(store, card.NewRepository(db), walletService, images, notificationService)
	marketplaceService := marketplace.NewService(
		store,
		marketplace.NewRepository(db),
		walletService,
		marketplace.NewCache(redisClient, cfg.MarketplaceCacheTTL),
		notificationService,
	)

	// ---------- Background jobs ----------
	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	go notification.NewCleanupJob(notificationRepo, 90).Start(jobsCtx, 24*time.Hour)

	// ---------- Router ----------
	r := newRouter(routerConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Auth: middleware.Chain(
			middleware.Auth(jwtService),
			middleware.SyncUser(userService),
		),
		Wallets:       wallet.NewHandler(walletService),
		Cards:         card.NewHandler(cardService),
		Marketplace:   marketplace.NewHandler(marketplaceService),
		Notifications: notification.NewHandler(notificationService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stopJobs()
	notificationService.Wait()

	log.Info().Msg("Server exited properly")
}
