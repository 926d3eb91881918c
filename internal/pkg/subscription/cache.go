package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusCache memoizes resolved subscription status. It is pure memoization,
// not a consistency mechanism: concurrent clients can observe counts up to
// one TTL stale. The accessor takes it as a dependency so tests control
// time and isolate state.
type StatusCache interface {
	Get(ctx context.Context, userID uint) (*Status, bool)
	Set(ctx context.Context, userID uint, st *Status)
	Invalidate(ctx context.Context, userID uint)
}

type redisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStatusCache creates a Redis-backed status cache with the given TTL.
func NewRedisStatusCache(client *redis.Client, ttl time.Duration) StatusCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisStatusCache{client: client, ttl: ttl}
}

func statusKey(userID uint) string {
	return fmt.Sprintf("subscription:status:%d", userID)
}

func (c *redisStatusCache) Get(ctx context.Context, userID uint) (*Status, bool) {
	raw, err := c.client.Get(ctx, statusKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var st Status
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, false
	}
	return &st, true
}

func (c *redisStatusCache) Set(ctx context.Context, userID uint, st *Status) {
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	// Best effort; a cache miss on the next read just recomputes.
	_ = c.client.Set(ctx, statusKey(userID), raw, c.ttl).Err()
}

func (c *redisStatusCache) Invalidate(ctx context.Context, userID uint) {
	_ = c.client.Del(ctx, statusKey(userID)).Err()
}

// NoopStatusCache disables memoization; used where staleness is unacceptable.
type NoopStatusCache struct{}

func (NoopStatusCache) Get(context.Context, uint) (*Status, bool) { return nil, false }
func (NoopStatusCache) Set(context.Context, uint, *Status)        {}
func (NoopStatusCache) Invalidate(context.Context, uint)          {}
