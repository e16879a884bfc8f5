// Package locks provides the per-order dispatch lease: Redis for multi-node
// deployments, in-process for a single node and tests.
package locks

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a
// holder whose lease expired cannot release its successor's.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements ports.Locker with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.Locker = (*RedisLocker)(nil)

// NewRedisLocker namespaces every key with prefix, e.g. "fulfillment:lock:".
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (ports.Lock, error) {
	if key == "" {
		return nil, errs.NewValueIsRequiredError("lock key")
	}
	if ttl <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("lock ttl", ttl, time.Millisecond, "unbounded")
	}

	token := ulid.Make().String()
	fullKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ports.ErrLockHeld
	}
	return &redisLock{client: l.client, key: fullKey, token: token}, nil
}

type redisLock struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
