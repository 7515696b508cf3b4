package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-battle/internal/app"
	"quiz-battle/internal/config"
	"quiz-battle/internal/infra/memory"
	pgloader "quiz-battle/internal/infra/postgres"
	infraredis "quiz-battle/internal/infra/redis"
	"quiz-battle/internal/infra/sqlite"
	"quiz-battle/internal/pools"
)

// backends holds the connections opened for one command.
type backends struct {
	redis   *redis.Client
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func (b *backends) redisClient(cfg config.Config) *redis.Client {
	if b.redis == nil {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}
	return b.redis
}

// snapshotStore opens the configured session store.
func (b *backends) snapshotStore(ctx context.Context, cfg config.Config) (app.SnapshotStore, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		store, err := sqlite.Open(ctx, cfg.Store.Path, cfg.Store.Key)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		return store, nil
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("store driver redis needs redis.addr")
		}
		return infraredis.NewSnapshotStore(b.redisClient(cfg), cfg.Store.Key), nil
	case "memory":
		return memory.NewSnapshotStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// poolRepository picks the pool source (Postgres or YAML) and the cache in front of it.
func (b *backends) poolRepository(ctx context.Context, cfg config.Config) (app.PoolRepository, error) {
	var loader memory.PoolLoader = pools.NewFileLoader(cfg.Pools.File)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		loader = pgloader.NewPoolLoader(pool)
	}

	ttl := config.TTLDuration(cfg.Pools.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		return infraredis.NewPoolRepository(b.redisClient(cfg), loader, cfg.Pools.Set, ttl), nil
	}
	return memory.NewPoolRepository(loader, cfg.Pools.Set, ttl), nil
}
