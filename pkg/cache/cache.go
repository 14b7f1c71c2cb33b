// Package cache provides a Redis-backed view cache for rendered API
// responses, keyed by request path, with advisory invalidation.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "view:"

// Cache stores serialized view data under request paths. All methods are
// best-effort: a Redis failure degrades to a cache miss, never an error.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// New creates a view cache with the given entry TTL.
func New(client *redis.Client, logger *zap.Logger, ttl time.Duration) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, logger: logger, ttl: ttl}
}

// GetJSON loads the cached value for path into v. Returns false on miss,
// decode failure, or Redis error.
func (c *Cache) GetJSON(ctx context.Context, path string, v interface{}) bool {
	raw, err := c.client.Get(ctx, keyPrefix+path).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get", zap.String("path", path), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.logger.Warn("cache decode", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores v under path for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, path string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode", zap.String("path", path), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+path, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set", zap.String("path", path), zap.Error(err))
	}
}

// Invalidate drops the cached entry for path. Advisory and fire-and-forget:
// the return value of the underlying DEL is not consumed.
func (c *Cache) Invalidate(ctx context.Context, path string) {
	if err := c.client.Del(ctx, keyPrefix+path).Err(); err != nil {
		c.logger.Warn("cache invalidate", zap.String("path", path), zap.Error(err))
	}
}
