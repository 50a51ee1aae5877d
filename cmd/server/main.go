package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/leomatch/internal/app"
	"github.com/oggyb/leomatch/internal/cache"
	"github.com/oggyb/leomatch/internal/config"
	"github.com/oggyb/leomatch/internal/db"
	"github.com/oggyb/leomatch/internal/events"
	"github.com/oggyb/leomatch/internal/logger"
	"github.com/oggyb/leomatch/internal/server"
	"github.com/oggyb/leomatch/internal/service/matchmaking"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	publisher, err := events.New(cfg, redisCache.Client, logger.Named("events"))
	if err != nil {
		log.Error("failed to init event publisher", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	appCtx := app.New(cfg, database, redisCache, publisher, log)

	registrars := []server.Registrar{
		matchmaking.NewRegistrar(appCtx),
	}
	auth := server.NewAdminAuth(cfg.Admin.TokenHash, matchmaking.AdminMethods...)
	if cfg.Admin.TokenHash == "" {
		log.Warn("ADMIN_TOKEN_HASH is not set, admin methods are disabled")
	}
	grpcServer := server.NewGRPCServer(log, auth, registrars...)

	sqlDB, err := database.DB()
	if err != nil {
		log.Error("failed to get sql db", "err", err)
		os.Exit(1)
	}
	ops := server.NewOpsRouter(map[string]server.HealthCheck{
		"db":    sqlDB.PingContext,
		"redis": redisCache.Ping,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(ctx, cfg, grpcServer)
	})
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.HTTP.Addr)
		return server.StartHTTPServer(ctx, cfg.HTTP.Addr, ops, log)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
