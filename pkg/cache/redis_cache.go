package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RequestCache caches expensive pipeline results (retrieval sets, answers)
// in Redis. Every operation is best-effort: a missing or unreachable Redis
// degrades to cache misses and silent write skips, never to errors. The
// pipeline must work identically with the cache down.
type RequestCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

const opTimeout = 2 * time.Second

// NewRequestCache connects to Redis and verifies the connection with a
// ping. On any failure the returned cache is a no-op.
func NewRequestCache(redisURL string, ttl time.Duration, logger *log.Logger) *RequestCache {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Printf("[WARN] Redis unavailable, request caching disabled: %v", err)
		return &RequestCache{logger: logger}
	}

	logger.Printf("[DEBUG] Request cache connected (ttl=%s)", ttl)
	return &RequestCache{client: client, ttl: ttl, logger: logger}
}

// NewRequestCacheFromClient wraps an existing client. Used by tests.
func NewRequestCacheFromClient(client *redis.Client, ttl time.Duration, logger *log.Logger) *RequestCache {
	return &RequestCache{client: client, ttl: ttl, logger: logger}
}

// Enabled reports whether a live Redis connection backs this cache.
func (c *RequestCache) Enabled() bool {
	return c.client != nil
}

// Key builds a namespaced cache key. The value is md5-hashed so raw
// queries of any length or content produce fixed-size keys.
func (c *RequestCache) Key(namespace string, value string) string {
	sum := md5.Sum([]byte(value))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// Get unmarshals the cached value into dest. Returns false on miss,
// on unreachable Redis, or when the stored payload fails to decode.
func (c *RequestCache) Get(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("[WARN] Cache get failed for %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		c.logger.Printf("[WARN] Cache payload corrupt for %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value as JSON under key with the configured TTL.
func (c *RequestCache) Set(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Printf("[WARN] Cache marshal failed for %s: %v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Printf("[WARN] Cache set failed for %s: %v", key, err)
	}
}

// Delete removes a single key.
func (c *RequestCache) Delete(ctx context.Context, key string) {
	if c.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Printf("[WARN] Cache delete failed for %s: %v", key, err)
	}
}

// ClearPattern removes every key matching the glob pattern, e.g.
// "retrieval:*" after the corpus changes. Returns the number of keys
// removed.
func (c *RequestCache) ClearPattern(ctx context.Context, pattern string) int {
	if c.client == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	removed := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err == nil {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Printf("[WARN] Cache clear failed for pattern %s: %v", pattern, err)
	}
	if removed > 0 {
		c.logger.Printf("[DEBUG] Cleared %d cache entries matching %s", removed, pattern)
	}
	return removed
}

// Close releases the underlying connection.
func (c *RequestCache) Close() error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}
