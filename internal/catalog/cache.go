package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	errx "github.com/Chative-core-poc-v1/shopping-assistant/internal/core/error"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix     = "catalog:"
	cacheCategoriesKey = cacheKeyPrefix + "categories"
)

// RedisCache is a read-through cache in front of another Accessor. Redis
// failures are logged and bypassed; they never fail a lookup the inner
// accessor can answer.
type RedisCache struct {
	inner Accessor
	rdb   redis.Cmdable
	ttl   time.Duration
}

func NewRedisCache(inner Accessor, rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *RedisCache) lookupKey(f Filter) string {
	return cacheKeyPrefix + "lookup:" + f.Key()
}

func (c *RedisCache) Lookup(ctx context.Context, f Filter) ([]Product, error) {
	key := c.lookupKey(f)
	var cached []Product
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := c.inner.Lookup(ctx, f)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, rows)
	return rows, nil
}

func (c *RedisCache) ListCategories(ctx context.Context) ([]string, error) {
	var cached []string
	if c.get(ctx, cacheCategoriesKey, &cached) {
		return cached, nil
	}

	cats, err := c.inner.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, cacheCategoriesKey, cats)
	return cats, nil
}

// Invalidate drops every cached catalog entry.
func (c *RedisCache) Invalidate(ctx context.Context) (int, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logx.Error().Err(err).Msg("failed to scan catalog cache keys")
		return 0, errx.WrapRedis(err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logx.Error().Err(err).Int("keys", len(keys)).Msg("failed to delete catalog cache keys")
		return 0, errx.WrapRedis(err)
	}
	return len(keys), nil
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logx.Warn().Err(errx.WrapRedis(err)).Str("key", key).Msg("catalog cache read failed; bypassing")
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("corrupt catalog cache entry; bypassing")
		return false
	}
	return true
}

func (c *RedisCache) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to marshal catalog cache entry")
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		logx.Warn().Err(errx.WrapRedis(err)).Str("key", key).Msg("catalog cache write failed")
	}
}

var _ Accessor = (*RedisCache)(nil)
