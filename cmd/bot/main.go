// Package main is the entry point for the community coin bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"community-coin-bot/internal/bot"
	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/config"
	"community-coin-bot/internal/pkg/db"
	"community-coin-bot/internal/pkg/lock"
	"community-coin-bot/internal/repository"
	"community-coin-bot/internal/server"
	"community-coin-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Catalogs are immutable configuration, built once and injected
	actions := catalog.DefaultActions()
	rewards := catalog.DefaultRewards()

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	requestRepo := repository.NewRequestRepository(dbPool.Pool)

	// Initialize user lock
	userLock := lock.NewUserLock()

	// Initialize services
	balanceService := service.NewBalanceService(userRepo, requestRepo, rewards, userLock, cfg.Economy.SeedCoins)
	eligibilityService := service.NewEligibilityService(requestRepo, actions, cfg.Economy.EligibilityTimeout)
	lifecycleService := service.NewLifecycleService(
		userRepo,
		requestRepo,
		actions,
		eligibilityService,
		userLock,
		cfg.Economy.SeedCoins,
		cfg.Economy.StrayCoins,
		cfg.Economy.StrayWindow,
		cfg.Reconcile.BatchSize,
	)
	purchaseService := service.NewPurchaseService(userRepo, rewards, balanceService, userLock)
	leaderboardService := service.NewLeaderboardService(userRepo, balanceService, cfg.Economy.LeaderboardSize)

	// Reconciler: one serialized runner shared by the interval loop,
	// the admin command, and the HTTP trigger
	reconciler := service.NewReconciler(lifecycleService, cfg.Reconcile.Interval)
	reconciler.Start(ctx)

	// HTTP sidecar: health check + on-demand reconcile
	httpServer := server.New(&cfg.HTTP, dbPool, reconciler)
	httpServer.Start()

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:      cfg,
		Actions:     actions,
		Rewards:     rewards,
		Lifecycle:   lifecycleService,
		Eligibility: eligibilityService,
		Purchase:    purchaseService,
		Leaderboard: leaderboardService,
		Reconciler:  reconciler,
	}

	// Initialize bot
	coinBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		coinBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	coinBot.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			external_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
			owned_rewards TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_coins ON users(coins DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create requests table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS requests (
			id BIGSERIAL PRIMARY KEY,
			reference UUID NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Pending',
			coins_given BIGINT,
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			proof_link TEXT NOT NULL DEFAULT '',
			note TEXT NOT NULL DEFAULT '',
			submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_requests_user_action ON requests(user_id, action);
		CREATE INDEX IF NOT EXISTS idx_requests_status_unprocessed ON requests(status) WHERE NOT processed;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: requests table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
