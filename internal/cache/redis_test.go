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

func newTestCache(t *testing.T, ttl time.Duration) (*RedisListCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisListCache(rdb, ttl), mr
}

func TestKeys(t *testing.T) {
	c := NewRedisListCache(nil, time.Minute)

	assert.Equal(t, "gallery:images:gen", c.generationKey())
	assert.Equal(t, "gallery:images:v3:page=1:limit=2", c.entryKey(3, "page=1:limit=2"))
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := Open(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, rdb.Close())
}

func TestOpen_RejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "not a url")
	assert.ErrorContains(t, err, "failed to parse redis url")
}

func TestGet_SurfacesConnectionErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewRedisListCache(rdb, time.Minute)

	_, _, found, err := c.Get(context.Background(), "k")
	assert.False(t, found)
	assert.ErrorContains(t, err, "failed to read cache generation")
}

func TestRedisListCache_SetThenGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	_, gen, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, gen, "p1", []byte(`{"currentPage":1}`)))

	value, gen, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Zero(t, gen)
	assert.Equal(t, `{"currentPage":1}`, string(value))
	assert.Equal(t, time.Minute, mr.TTL(c.entryKey(0, "p1")))
}

func TestRedisListCache_InvalidateOrphansEntries(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, 0, "p1", []byte("old")))
	require.NoError(t, c.Invalidate(ctx))

	_, gen, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.EqualValues(t, 1, gen)

	// The old entry is left behind to expire on its own.
	assert.True(t, mr.Exists(c.entryKey(0, "p1")))

	require.NoError(t, c.Set(ctx, gen, "p1", []byte("new")))
	value, _, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "new", string(value))
}

func TestRedisListCache_EntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, 0, "p1", []byte("page")))
	mr.FastForward(time.Minute + time.Second)

	_, _, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisListCache_SetDropsStaleGeneration(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	// A reader misses, a writer invalidates, then the reader stores the page
	// it built from the old rows.
	_, gen, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, gen, "p1", []byte("stale")))

	_, current, found, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.EqualValues(t, 1, current)
	assert.False(t, mr.Exists(c.entryKey(0, "p1")))
	assert.False(t, mr.Exists(c.entryKey(1, "p1")))
}

func TestRedisListCache_SetSurfacesConnectionErrors(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	err := c.Set(context.Background(), 0, "p1", []byte("page"))
	assert.ErrorContains(t, err, "failed to write cache entry p1")
}
