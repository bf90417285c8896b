package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostsignal/internal/app/registry"
	"ghostsignal/internal/app/server"
	"ghostsignal/internal/app/server/handlers"
	"ghostsignal/internal/app/worker"
	"ghostsignal/internal/config"
	"ghostsignal/internal/core/contracts"
	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/core/services"
	"ghostsignal/internal/platform/logger"
	"ghostsignal/internal/platform/telemetry"
	"ghostsignal/internal/plugins/memory"
	"ghostsignal/internal/plugins/postgres"
	redisPlugin "ghostsignal/internal/plugins/redis"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
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

	// Backend adapters, chosen once. Everything downstream sees the same
	// contracts regardless of which side is wired.
	var (
		store     domain.MessageStore
		backend   domain.IdentityBackend
		blocklist contracts.Blocklist
	)
	if cfg.Chat.RemoteBackend {
		pdb, err := postgres.New(ctx, *cfg.Postgres)
		if err != nil {
			log.Error("postgres connection failed", "DSN", cfg.Postgres.DSN, "err", err)
			return
		}
		log.Info("postgres connected")
		if err := postgres.Migrate(ctx, pdb); err != nil {
			log.Error("postgres migration failed", "err", err)
			return
		}
		rdb, err := redisPlugin.NewRedisClient(ctx, *cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
			return
		}
		log.Info("redis connected")

		notifier := redisPlugin.NewChangeNotifier(log, rdb)
		pgStore := postgres.NewStore(log, pdb, cfg.Chat.WindowSize, notifier)
		if err := pgStore.Start(ctx); err != nil {
			log.Error("store change listener failed", "err", err)
			return
		}
		store = pgStore
		backend = postgres.NewIdentityRepo(pdb)
		blocklist = redisPlugin.NewBlocklist(rdb)
	} else {
		log.Info("simulated backend selected")
		store = memory.NewStore(cfg.Chat.WindowSize)
		backend = memory.NewIdentity()
		blocklist = memory.NewBlocklist()
	}

	// Core services
	hub := registry.NewRegistry()
	gate := services.NewNetworkGate(*cfg.Net)
	identitySvc := services.NewIdentityService(log, backend)
	tokenSvc := services.NewTokenService(cfg.SecretToken)
	msgSvc := services.NewMessageService(log, store)
	ephemeralSvc := services.NewEphemeralService(log, store, cfg.Chat.EphemeralWindow)
	defer ephemeralSvc.Close()
	adminSvc := services.NewAdminService(log, backend, blocklist, msgSvc)

	if !cfg.Chat.RemoteBackend {
		seedIdentities(ctx, log, identitySvc)
	}

	log.Info("network gate evaluated", "anonymized", gate.Anonymized())

	// Background expiry recovery
	sweeper := worker.NewExpirySweeper(log, msgSvc, ephemeralSvc, cfg.Chat.EphemeralWindow/2)
	go sweeper.Run(ctx)

	// Server
	authHandler := handlers.NewAuthHandler(identitySvc, tokenSvc)
	wsHandler := handlers.NewWSHandler(hub, msgSvc, ephemeralSvc, backend, gate, cfg.Chat)
	adminHandler := handlers.NewAdminHandler(adminSvc)
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, authHandler, wsHandler, adminHandler, tokenSvc)
	if err := srv.Start(ctx); err != nil {
		log.Error("server stopped", "err", err)
	}
	hub.CloseAll()
}

// seedIdentities provisions the fixed demo roster on the simulated backend.
// Duplicate errors on restart are expected and ignored.
func seedIdentities(ctx context.Context, log *slog.Logger, identitySvc *services.IdentityService) {
	seeds := []struct {
		nickname string
		secret   string
		role     string
	}{
		{"Admin", "admin123", domain.RoleAdmin},
		{"Ghost-8821", "password", domain.RoleUser},
	}
	for _, s := range seeds {
		if err := identitySvc.Seed(ctx, s.nickname, s.secret, s.role); err != nil {
			log.Warn("seed identity skipped", "nickname", s.nickname, "err", err)
		}
	}
}
