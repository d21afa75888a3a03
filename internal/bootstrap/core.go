// Package bootstrap assembles the sync core from configuration. The server
// and the CLI share it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/provenpro/adapters/event"
	"github.com/khoahotran/provenpro/adapters/persistence"
	"github.com/khoahotran/provenpro/adapters/profileapi"
	"github.com/khoahotran/provenpro/internal/application/profilecache"
	"github.com/khoahotran/provenpro/internal/application/service"
	collectionUC "github.com/khoahotran/provenpro/internal/application/usecase/collection"
	"github.com/khoahotran/provenpro/internal/application/usecase/draft"
	profileUC "github.com/khoahotran/provenpro/internal/application/usecase/profile"
	sessionUC "github.com/khoahotran/provenpro/internal/application/usecase/session"
	"github.com/khoahotran/provenpro/internal/config"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/auth"
	"github.com/khoahotran/provenpro/pkg/logger"
	"github.com/khoahotran/provenpro/pkg/metrics"
)

type Options struct {
	// Token seeds the in-memory token store when Redis is not configured.
	Token string
	// SkipHistory leaves Postgres unconnected even when a DSN is set.
	SkipHistory bool
	// SkipEvents leaves Kafka unconnected even when brokers are set.
	SkipEvents bool
}

type Core struct {
	Config    config.Config
	Gateway   profile.Gateway
	Cache     *profilecache.Cache
	Workspace *draft.Workspace
	Tokens    profile.TokenStore
	History   profile.HistoryRepository
	Metrics   *metrics.Recorder

	Sync    *collectionUC.SyncUseCase
	Delete  *collectionUC.DeleteItemUseCase
	Profile *profileUC.ProfileUseCase
	Session *sessionUC.SessionUseCase

	closers []func()
}

// Close releases connections in reverse order of creation.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func New(ctx context.Context, cfg config.Config, log logger.Logger, opts Options) (*Core, error) {
	ordering, err := profilecache.ParseOrdering(cfg.Sync.Ordering)
	if err != nil {
		return nil, err
	}
	core := &Core{Config: cfg, Metrics: metrics.NewRecorder()}

	var mirror service.SnapshotMirror
	if cfg.Redis.Addr != "" {
		rdb, err := persistence.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		core.closers = append(core.closers, func() { closeRedis(rdb, log) })
		mirror = persistence.NewRedisSnapshotMirror(rdb, cfg.Redis.KeyPrefix)
		core.Tokens = persistence.NewRedisTokenStore(rdb, cfg.Redis.KeyPrefix)
		if opts.Token != "" {
			if err := core.Tokens.Save(ctx, opts.Token, 0); err != nil {
				core.Close()
				return nil, err
			}
		}
	} else {
		log.Info("Redis not configured, session and snapshot stay in memory")
		core.Tokens = persistence.NewMemoryTokenStore(opts.Token)
	}

	if cfg.DB.DSN != "" && !opts.SkipHistory {
		pool, err := persistence.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			core.Close()
			return nil, err
		}
		core.closers = append(core.closers, pool.Close)
		core.History = persistence.NewPostgresHistoryRepo(pool, log)
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 && !opts.SkipEvents {
		producer, err := event.NewKafkaProducerClient(cfg, log)
		if err != nil {
			core.Close()
			return nil, err
		}
		core.closers = append(core.closers, producer.Close)
		publisher = producer
	}

	core.Gateway = profileapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, core.Tokens, log)
	core.Cache = profilecache.New(ordering, mirror, log)
	if restored, err := core.Cache.Restore(ctx); err != nil {
		log.Warn("Could not restore mirrored profile", zap.Error(err))
	} else if restored {
		log.Info("Restored profile snapshot from Redis", zap.Uint64("version", core.Cache.Get().Version))
	}
	core.Workspace = draft.NewWorkspace(core.Cache, draft.NewValidator())

	sub := cfg.API.DefaultSubscription
	core.Sync = collectionUC.NewSyncUseCase(core.Gateway, core.Cache, core.Workspace, publisher, core.Metrics, sub, log)
	core.Delete = collectionUC.NewDeleteItemUseCase(core.Gateway, core.Cache, core.Sync, core.Metrics, log)
	core.Profile = profileUC.NewProfileUseCase(core.Gateway, core.Cache, core.History, publisher, sub, log)
	core.Session = sessionUC.NewSessionUseCase(core.Tokens, auth.NewJWTInspector(), core.Cache, core.Workspace, publisher, log)

	log.Info("Sync core ready",
		zap.String("profile_api", cfg.API.BaseURL),
		zap.String("ordering", ordering.String()),
		zap.Bool("history", core.History != nil))
	return core, nil
}

// NewHistoryPool is used by the worker, which needs only Postgres.
func NewHistoryPool(ctx context.Context, cfg config.Config, log logger.Logger) (*pgxpool.Pool, profile.HistoryRepository, error) {
	if cfg.DB.DSN == "" {
		return nil, nil, fmt.Errorf("DB_DSN is required")
	}
	pool, err := persistence.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return pool, persistence.NewPostgresHistoryRepo(pool, log), nil
}

func closeRedis(rdb *redis.Client, log logger.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn("Closing Redis failed", zap.Error(err))
	}
}
