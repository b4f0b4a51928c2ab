package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAccessor struct {
	Accessor
	lookups    int
	categories int
}

func (c *countingAccessor) Lookup(ctx context.Context, f Filter) ([]Product, error) {
	c.lookups++
	return c.Accessor.Lookup(ctx, f)
}

func (c *countingAccessor) ListCategories(ctx context.Context) ([]string, error) {
	c.categories++
	return c.Accessor.ListCategories(ctx)
}

func newTestCache(t *testing.T) (*RedisCache, *countingAccessor, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	inner := &countingAccessor{Accessor: NewMemory(sampleProducts())}
	return NewRedisCache(inner, rdb, time.Minute), inner, mr
}

func TestRedisCacheReadThrough(t *testing.T) {
	cache, inner, _ := newTestCache(t)
	ctx := context.Background()

	first, err := cache.Lookup(ctx, Filter{ProductType: "Carrot"})
	require.NoError(t, err)
	second, err := cache.Lookup(ctx, Filter{ProductType: " carrot"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.lookups)

	cats, err := cache.ListCategories(ctx)
	require.NoError(t, err)
	_, err = cache.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegetables", "dairy", "fruits"}, cats)
	assert.Equal(t, 1, inner.categories)
}

func TestRedisCacheExpiresAndInvalidates(t *testing.T) {
	cache, inner, mr := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Lookup(ctx, Filter{ProductType: "Milk"})
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.Lookup(ctx, Filter{ProductType: "Milk"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lookups)

	_, err = cache.ListCategories(ctx)
	require.NoError(t, err)
	n, err := cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = cache.Lookup(ctx, Filter{ProductType: "Milk"})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.lookups)
}

func TestRedisCacheBypassesOnRedisFailure(t *testing.T) {
	cache, inner, mr := newTestCache(t)
	mr.Close()

	rows, err := cache.Lookup(context.Background(), Filter{ProductType: "Milk"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, inner.lookups)
}
