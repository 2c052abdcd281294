package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set(cacheKey("cartItems", "user123"), `[{"product_id":"p1"}]`)

	result, err := cache.Get(context.Background(), "cartItems", "user123")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product_id":"p1"}]`, string(result))
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	result, err := cache.Get(context.Background(), "cartItems", "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.SetError("server unavailable")

	_, err := cache.Get(context.Background(), "cartItems", "user123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_WritesWithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := cache.Set(context.Background(), "wishlistItems", "user123", []byte(`[]`))
	require.NoError(t, err)

	key := cacheKey("wishlistItems", "user123")
	assert.True(t, mr.Exists(key))

	ttl := mr.TTL(key)
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)
}

func TestSet_ExpiresAfterTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), "cartItems", "user123", []byte(`[]`)))

	mr.FastForward(21 * time.Minute)

	_, err := cache.Get(context.Background(), "cartItems", "user123")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "cartItems", "user123", []byte(`[]`)))
	require.NoError(t, cache.Delete(ctx, "cartItems", "user123"))

	assert.False(t, mr.Exists(cacheKey("cartItems", "user123")))

	// deleting a missing key is not an error
	assert.NoError(t, cache.Delete(ctx, "cartItems", "user123"))
}

func TestNopCache(t *testing.T) {
	var c CollectionCache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "cartItems", "u", []byte(`[]`)))
	_, err := c.Get(ctx, "cartItems", "u")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "cartItems", "u"))
}
