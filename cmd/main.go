package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SbuKhoza/handy-rentals-app/internal/app/registry"
	"github.com/SbuKhoza/handy-rentals-app/internal/app/server"
	"github.com/SbuKhoza/handy-rentals-app/internal/config"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/services"
	"github.com/SbuKhoza/handy-rentals-app/internal/platform/logger"
	"github.com/SbuKhoza/handy-rentals-app/internal/platform/telemetry"
	"github.com/SbuKhoza/handy-rentals-app/internal/plugins/memory"
	"github.com/SbuKhoza/handy-rentals-app/internal/plugins/postgres"
	redisPlugin "github.com/SbuKhoza/handy-rentals-app/internal/plugins/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Store backend
	var (
		convStore contracts.ConversationStore
		msgStore  contracts.MessageStore
		profiles  []contracts.ProfileSource
		listings  contracts.ListingSource
	)
	switch cfg.Store.Backend {
	case "memory":
		log.Info("using in-memory store backend")
		store := memory.NewStore()
		convStore = store
		msgStore = store
		profiles = []contracts.ProfileSource{
			memory.NewProfileSource("profiles"),
			memory.NewProfileSource("users"),
		}
		listings = memory.NewListingSource()
	default:
		pdb, err := postgres.New(ctx, *cfg.Postgres)
		if err != nil {
			log.Error("postgres connection failed", "err", err)
			return
		}
		defer pdb.Close()
		log.Info("postgres connected")

		rdb, err := redisPlugin.NewRedisClient(ctx, *cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
			return
		}
		defer rdb.Close()
		log.Info("redis connected")

		notifier := redisPlugin.NewNotifier(log, rdb)
		txManager := postgres.NewTxManager(pdb)
		convStore = postgres.NewConversationRepo(pdb, notifier)
		msgStore = postgres.NewMessageRepo(pdb, txManager, notifier)
		profiles = []contracts.ProfileSource{
			postgres.NewProfilesSource(pdb),
			postgres.NewUsersSource(pdb),
		}
		listings = postgres.NewListingsSource(pdb)
	}

	// Core services
	resolver := services.NewProfileResolver(log, profiles...)
	directory := services.NewConversationDirectory(log, convStore, listings, resolver)
	channel := services.NewMessageChannel(log, msgStore, convStore)
	tracker := services.NewReadStateTracker(log, msgStore)
	tokenSvc := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	hub := registry.NewRegistry()
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, tokenSvc, directory, channel, tracker, hub)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
	hub.CloseAll()
}
