package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/leomatch/internal/cache"
	"github.com/oggyb/leomatch/internal/config"
	"github.com/oggyb/leomatch/internal/events"
	"github.com/oggyb/leomatch/internal/match"
	"github.com/oggyb/leomatch/internal/profile"
	"github.com/oggyb/leomatch/internal/repository"
)

// AppContext holds shared dependencies (DB, Redis, Logger, engine, etc.)
// It is built once at startup and injected into every service.
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	Store     *repository.Store
	Engine    *match.Engine
	Profiles  *profile.Service
	Sessions  *cache.SessionStore
	Publisher events.Publisher
}

// New wires the storage, the match engine and the profile service.
// Engine locks go through Redis so several replicas can share one database.
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *cache.RedisCache,
	publisher events.Publisher,
	logger *slog.Logger,
) *AppContext {
	store := repository.NewStore(db)
	locker := cache.NewLocker(rdb, cfg.Lock.TTL, cfg.Lock.Wait, logger.With("subsystem", "lock"))

	engine := match.NewEngine(store,
		match.WithConfig(cfg),
		match.WithLocker(locker),
		match.WithPublisher(publisher),
		match.WithLogger(logger.With("subsystem", "match")),
	)

	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Store:      store,
		Engine:     engine,
		Profiles:   profile.NewService(store, cfg, logger.With("subsystem", "profile")),
		Sessions:   cache.NewSessionStore(rdb, cfg.Session.TTL),
		Publisher:  publisher,
	}
}
