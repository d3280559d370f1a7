package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

const redisDialTimeout = 5 * time.Second

// New builds the Locker described by cfg. Without a Redis section the lease is
// process local. The returned close function releases the Redis client.
func New(ctx context.Context, cfg *config.LockConfig) (Locker, func() error, error) {
	if cfg == nil || cfg.Redis == nil {
		slog.Info("Using in-process sync lock")
		return NewLocalLocker(), func() error { return nil }, nil
	}

	password, err := cfg.Redis.GetPassword()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get redis password: %w", err)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Redis.Address,
		DB:          cfg.Redis.DB,
		Username:    cfg.Redis.Username,
		Password:    password,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Redis.Address, err)
	}

	slog.Info("Using Redis sync lock", "address", cfg.Redis.Address, "prefix", cfg.Redis.GetKeyPrefix())
	return NewRedisLocker(rdb, cfg.Redis.GetKeyPrefix()), rdb.Close, nil
}
