package lock

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX on a shared Redis server
type RedisLocker struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on an existing client. Keys are namespaced with prefix.
func NewRedisLocker(rdb goredis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

// TryAcquire implements Locker
func (r *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	fullKey := r.prefix + key
	token := newToken()

	ok, err := r.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &redisLease{rdb: r.rdb, key: fullKey, token: token}, nil
}

type redisLease struct {
	rdb   goredis.UniversalClient
	key   string
	token string
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
