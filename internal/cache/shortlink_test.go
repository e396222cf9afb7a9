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

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func newLocal(t *testing.T) *LocalCache {
	t.Helper()
	local, err := NewLocalCache(100, time.Minute)
	require.NoError(t, err)
	return local
}

func TestShortlinkCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	local := newLocal(t)
	c := NewShortlinkCache(rdb, local, time.Hour, nil)
	defer c.Close()

	c.Set(ctx, "c7Xa2Q", "https://example.com/very/long/path")
	local.Wait()

	got, ok := c.Get(ctx, "c7Xa2Q")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/very/long/path", got)

	stored, err := mr.Get("sl:c7Xa2Q")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/very/long/path", stored)
	assert.Equal(t, time.Hour, mr.TTL("sl:c7Xa2Q"))
}

func TestShortlinkCache_L2BackfillsL1(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	local := newLocal(t)
	c := NewShortlinkCache(rdb, local, time.Hour, nil)
	defer c.Close()

	require.NoError(t, mr.Set("sl:abc123", "https://example.com"))

	got, ok := c.Get(ctx, "abc123")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", got)

	local.Wait()
	got, ok = local.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", got)
}

func TestShortlinkCache_Miss(t *testing.T) {
	_, rdb := newRedis(t)
	c := NewShortlinkCache(rdb, newLocal(t), time.Hour, nil)
	defer c.Close()

	_, ok := c.Get(context.Background(), "missing")
	assert.False(t, ok)
}

func TestShortlinkCache_RedisDownIsMiss(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewShortlinkCache(rdb, nil, time.Hour, nil)
	mr.Close()

	_, ok := c.Get(context.Background(), "abc123")
	assert.False(t, ok)
	assert.NotPanics(t, func() { c.Set(context.Background(), "abc123", "https://example.com") })
}

func TestShortlinkCache_Delete(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	local := newLocal(t)
	c := NewShortlinkCache(rdb, local, time.Hour, nil)
	defer c.Close()

	c.Set(ctx, "abc123", "https://example.com")
	local.Wait()
	c.Delete(ctx, "abc123")
	local.Wait()

	_, ok := c.Get(ctx, "abc123")
	assert.False(t, ok)
	assert.False(t, mr.Exists("sl:abc123"))
}

func TestShortlinkCache_LocalOnly(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	c := NewShortlinkCache(nil, local, time.Hour, nil)
	defer c.Close()

	c.Set(ctx, "abc123", "https://example.com")
	local.Wait()

	got, ok := c.Get(ctx, "abc123")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", got)
}
