package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromClient(rdb), mr
}

func TestHealth(t *testing.T) {
	client, mr := setupClient(t)
	assert.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestCartCountCache(t *testing.T) {
	client, mr := setupClient(t)
	cache := NewCartCountCache(client, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)

	cache.Set(ctx, 7, 3)
	count, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, 3, count)
	assert.Equal(t, time.Minute, mr.TTL("cart:count:7"))

	cache.Invalidate(ctx, 7)
	_, ok = cache.Get(ctx, 7)
	assert.False(t, ok)
}

func TestCartCountCacheExpires(t *testing.T) {
	client, mr := setupClient(t)
	cache := NewCartCountCache(client, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, 1, 5)
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, 1)
	assert.False(t, ok)
}

func TestIdempotencyStore(t *testing.T) {
	client, mr := setupClient(t)
	store := NewIdempotencyStore(client, 24*time.Hour)
	ctx := context.Background()

	orderID, reserved, err := store.Reserve(ctx, 1, "abc")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Zero(t, orderID)

	t.Run("pending key is not reserved twice", func(t *testing.T) {
		orderID, reserved, err := store.Reserve(ctx, 1, "abc")
		require.NoError(t, err)
		assert.False(t, reserved)
		assert.Zero(t, orderID)
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		_, reserved, err := store.Reserve(ctx, 2, "abc")
		require.NoError(t, err)
		assert.True(t, reserved)
	})

	require.NoError(t, store.Complete(ctx, 1, "abc", 42))

	orderID, reserved, err = store.Reserve(ctx, 1, "abc")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, uint(42), orderID)
	assert.Equal(t, 24*time.Hour, mr.TTL("idempotency:checkout:1:abc"))
}

func TestIdempotencyStoreRelease(t *testing.T) {
	client, _ := setupClient(t)
	store := NewIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	_, reserved, err := store.Reserve(ctx, 1, "retry")
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, store.Release(ctx, 1, "retry"))

	_, reserved, err = store.Reserve(ctx, 1, "retry")
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestRateLimiter(t *testing.T) {
	client, _ := setupClient(t)
	limiter := NewRateLimiter(client, 2, time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 10, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 1, 0, 0, time.UTC), first.ResetAt)

	second, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Zero(t, second.Remaining)

	third, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Zero(t, third.Remaining)

	other, err := limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	next, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, next.Allowed)
}
