// Package cache keeps computed analytics payloads in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/models"
)

const keyPrefix = "foodlens:analytics:"

// AnalyticsCache stores dashboard payloads keyed by their request
// parameters. A nil redis client turns every call into a no-op.
type AnalyticsCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewAnalyticsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AnalyticsCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsCache{redis: client, ttl: ttl, logger: logger}
}

// Key joins request parameters into a cache key. Empty parts are kept so
// that positions stay stable.
func Key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

// Get returns nil on a miss. Redis failures are logged and reported as a
// miss so a broken cache never fails a request.
func (c *AnalyticsCache) Get(ctx context.Context, key string) *models.AnalyticsPayload {
	if c == nil || c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("failed to get analytics from cache", zap.Error(err), zap.String("key", key))
		}
		return nil
	}

	var payload models.AnalyticsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logger.Warn("failed to unmarshal cached analytics", zap.Error(err), zap.String("key", key))
		return nil
	}

	c.logger.Debug("cache hit for analytics", zap.String("key", key))
	return &payload
}

// Set stores payload under key. Errors are returned for the caller to log.
func (c *AnalyticsCache) Set(ctx context.Context, key string, payload models.AnalyticsPayload) error {
	if c == nil || c.redis == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal analytics: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set analytics in cache: %w", err)
	}

	c.logger.Debug("cached analytics", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate drops every cached payload, typically after new transactions
// were ingested.
func (c *AnalyticsCache) Invalidate(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}

	var removed int
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("failed to invalidate analytics cache", zap.Error(err))
			return err
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan analytics keys: %w", err)
	}

	c.logger.Debug("invalidated analytics cache", zap.Int("keys_removed", removed))
	return nil
}
