// Package cache is a small read-through JSON cache over redis for dashboard
// query responses. Every method is a no-op when no redis client is
// configured, so handlers never branch on cache availability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
)

const keyPrefix = "pulse:"

// Cache stores JSON-encoded query results with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Cache. client may be nil, which disables caching.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get loads the cached value for key into dest. It reports whether a value
// was found; redis errors are logged and treated as a miss so a flaky cache
// never fails a read path.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("cache read failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warn("cache entry corrupt", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores value under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		logger.Warn("cache write failed", "key", key, "error", err.Error())
	}
}

// Invalidate removes every cached entry. Imports and syncs rewrite the
// aggregates wholesale, so a full flush of the namespace is simpler than
// tracking which keys a write touched.
func (c *Cache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("cache scan failed", "error", err.Error())
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("cache invalidation failed", "error", err.Error())
		return
	}
	logger.Info("cache invalidated", "keys", len(keys))
}
