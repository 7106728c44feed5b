package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisOpTimeout = 2 * time.Second
	redisScanBatch = 100
)

// RedisCache keeps JSON-encoded values in Redis so several API processes
// share results. Expiry is left to Redis; every key lives under prefix.
// Redis failures read as misses and are never returned to callers.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits, misses atomic.Uint64
}

// ParseRedisURL accepts either a redis:// or rediss:// URL or a bare
// host:port address.
func ParseRedisURL(raw string) (*redis.Options, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty redis url")
	}
	if !strings.Contains(raw, "://") {
		return &redis.Options{Addr: raw}, nil
	}
	opt, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

// NewRedisCache wraps client. A non-positive ttl stores keys without expiry.
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache[T]{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache[T]) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value from the cache
func (c *RedisCache[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("Redis cache read failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("Dropping undecodable cache value", "key", key, "error", err)
		c.Delete(key)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return v, true
}

// Set stores data under key with the cache TTL.
func (c *RedisCache[T]) Set(key string, data T) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Cache value not encodable", "key", key, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		slog.Debug("Redis cache write failed", "key", key, "error", err)
	}
}

func (c *RedisCache[T]) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		slog.Debug("Redis cache delete failed", "key", key, "error", err)
	}
}

// Purge removes every key under the prefix.
func (c *RedisCache[T]) Purge() {
	if left := c.purge(); left > 0 {
		slog.Warn("Redis cache purge left keys behind", "prefix", c.prefix, "keys", left)
	}
}

// purge deletes the prefixed keys and returns how many could not be deleted.
func (c *RedisCache[T]) purge() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.prefix+"*", redisScanBatch).Iterator()
	batch := make([]string, 0, redisScanBatch)
	failed := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisScanBatch {
			failed += c.deleteBatch(ctx, batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		failed += c.deleteBatch(ctx, batch)
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Redis cache purge incomplete", "prefix", c.prefix, "error", err)
	}
	return failed
}

// deleteBatch removes keys and returns how many could not be deleted.
func (c *RedisCache[T]) deleteBatch(ctx context.Context, keys []string) int {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("Redis cache delete failed", "prefix", c.prefix, "keys", len(keys), "error", err)
		return len(keys)
	}
	return 0
}

// Size counts the keys under the prefix; it is zero when Redis is unreachable.
func (c *RedisCache[T]) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", redisScanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if iter.Err() != nil {
		return 0
	}
	return n
}

func (c *RedisCache[T]) Stats() Stats {
	return Stats{
		Size:   c.Size(),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Ping checks the connection.
func (c *RedisCache[T]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var (
	_ Cache[int] = (*RedisCache[int])(nil)
	_ Cache[int] = (*LRUCache[int])(nil)
)
