package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string
	Count int
}

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := NewRedisCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Connect(context.Background()))
	return c, mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	var miss cachedThing
	found, err := c.Get(ctx, "k", &miss)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", cachedThing{Name: "kenya", Count: 3}, time.Minute))

	var hit cachedThing
	found, err = c.Get(ctx, "k", &hit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedThing{Name: "kenya", Count: 3}, hit)

	require.NoError(t, c.Delete(ctx, "k"))
	found, err = c.Get(ctx, "k", &hit)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_Counters(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	n, err := c.Increment(ctx, "attempts")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.Increment(ctx, "attempts")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, c.Expire(ctx, "attempts", time.Minute))
	ttl, err := c.TTL(ctx, "attempts")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(2 * time.Minute)

	exists, err := c.Exists(ctx, "attempts")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_Ping(t *testing.T) {
	c, mr := setupTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
