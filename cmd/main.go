package main

import (
	"chathub/internal/app/registry"
	"chathub/internal/app/server"
	"chathub/internal/app/server/handlers"
	"chathub/internal/config"
	"chathub/internal/core/services"
	"chathub/internal/platform/logger"
	"chathub/internal/platform/telemetry"
	"chathub/internal/plugins/postgres"
	redisPlugin "chathub/internal/plugins/redis"
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting hub")

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

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	log.Info("postgres connected")
	var rdb *redis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	log.Info("redis connected")

	// Adapters
	identityRepo := postgres.NewIdentityRepo(pdb)
	roomRepo := postgres.NewRoomRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	summaries := redisPlugin.NewRedisSummaryCache(rdb)
	txManager := postgres.NewTxManager(pdb)

	// Core services
	roster := registry.NewRegistry()
	presence := services.NewPresenceRegistry(log, identityRepo, cfg.Hub.AwayAfter)
	rooms := services.NewRoomManager(log, roomRepo, roster)
	dispatch := services.NewDispatcher(log, roomRepo, msgRepo, identityRepo, presence, roster, summaries, txManager, cfg.Hub.SummaryTTL)
	auth := services.NewAuthenticator(log, cfg.Auth.Secret, cfg.Auth.Issuer, identityRepo, cfg.Auth.Timeout)

	// Server
	wsHandler := handlers.NewWSHandler(presence, rooms, dispatch)
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, auth, wsHandler)
	if err := srv.Start(ctx); err != nil {
		log.Error("server stopped", "err", err)
	}
}
