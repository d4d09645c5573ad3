// Package cache wraps the Redis key-value store with fallback
// compute-and-store semantics for cheap derived values like the index
// counters
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// commander is the slice of the redis client the cache actually needs.
// Tests substitute an in-memory implementation
type commander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Cache struct {
	rdb   commander
	ttl   time.Duration
	group singleflight.Group
}

func New(rdb commander, ttl time.Duration) *Cache {
	return &Cache{
		rdb: rdb,
		ttl: ttl,
	}
}

// Fetch returns the value cached under key, calling compute and storing
// the result on a miss. Concurrent callers for the same key share a
// single compute call. A failed store is logged but doesn't fail the
// caller since the computed value is still valid
func (c *Cache) Fetch(ctx context.Context, key string, compute func(ctx context.Context) (string, error)) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		return val, nil
	}

	if err != redis.Nil {
		return "", fmt.Errorf("failed to read cached value, %w", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have stored the value while we waited for
		// the flight lock
		if val, err := c.rdb.Get(ctx, key).Result(); err == nil {
			return val, nil
		}

		val, err := compute(ctx)
		if err != nil {
			return "", err
		}

		if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
			zap.L().Warn("Failed to store cached value", zap.String("key", key), zap.Error(err))
		}

		return val, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// FetchInt64 is Fetch for numeric counters
func (c *Cache) FetchInt64(ctx context.Context, key string, compute func(ctx context.Context) (int64, error)) (int64, error) {
	val, err := c.Fetch(ctx, key, func(ctx context.Context) (string, error) {
		n, err := compute(ctx)
		if err != nil {
			return "", err
		}

		return strconv.FormatInt(n, 10), nil
	})
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(val, 10, 64)
}

// Invalidate drops keys so the next Fetch recomputes them
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		zap.L().Warn("Failed to invalidate cached keys", zap.Strings("keys", keys), zap.Error(err))
	}
}
