package shopsync

import (
	"context"
	"time"

	"github.com/meridianops/stockroute-backend/pkg/redis"
)

const lockScope = "shopsync"

// Locker serializes sync passes per shop so two workers never interleave
// writes to the same shop view.
type Locker interface {
	Acquire(ctx context.Context, shopID string) (bool, error)
	Release(ctx context.Context, shopID string) error
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker builds a Locker over Redis SETNX with the given TTL. The TTL
// bounds how long a crashed worker can hold a shop hostage.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, shopID string) (bool, error) {
	return l.client.SetNX(ctx, redis.LockKey(lockScope, shopID), "1", l.ttl)
}

func (l *redisLocker) Release(ctx context.Context, shopID string) error {
	return l.client.Del(ctx, redis.LockKey(lockScope, shopID))
}
