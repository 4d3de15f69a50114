// Package cache provides a Redis-backed cache for image listing pages.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gallery:images"

// Open connects to the Redis instance described by rawURL and pings it.
func Open(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// RedisListCache stores serialized listing pages. Entries are namespaced by a
// generation counter; Invalidate bumps the counter so every cached page is
// orphaned at once and left to expire.
type RedisListCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisListCache(rdb *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{rdb: rdb, ttl: ttl, prefix: defaultPrefix}
}

// Get returns the cached value for key and the generation it was looked up
// in; found is false on a miss.
func (c *RedisListCache) Get(ctx context.Context, key string) (value []byte, gen int64, found bool, err error) {
	gen, err = c.generation(ctx, c.rdb)
	if err != nil {
		return nil, 0, false, err
	}
	value, err = c.rdb.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return value, gen, true, nil
}

// Set stores value under key in generation gen. The write is dropped when
// the cache has been invalidated since gen was read.
func (c *RedisListCache) Set(ctx context.Context, gen int64, key string, value []byte) error {
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.entryKey(gen, key), value, c.ttl)
			return nil
		})
		return err
	}, c.generationKey())
	if errors.Is(err, redis.TxFailedErr) {
		// Invalidated between the check and the write.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

func (c *RedisListCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *RedisListCache) generation(ctx context.Context, r getter) (int64, error) {
	gen, err := r.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisListCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisListCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:v%d:%s", c.prefix, gen, key)
}
