// Package geocache puts a Redis read-through cache in front of a place namer.
package geocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"backend-routesmith/internal/metrics"
	"backend-routesmith/internal/planner"
)

const DefaultTTL = 7 * 24 * time.Hour

type Cache struct {
	redis  *redis.Client
	next   planner.PlaceNamer
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps next. A nil Redis client makes the cache a passthrough.
func New(redisClient *redis.Client, next planner.PlaceNamer, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{redis: redisClient, next: next, ttl: ttl, logger: logger}
}

// Key rounds to four decimals, roughly 11 m, so nearby clicks share an entry.
func Key(lng, lat float64) string {
	return fmt.Sprintf("geocode:%.4f,%.4f", lng, lat)
}

func (c *Cache) PlaceName(ctx context.Context, lng, lat float64) (string, error) {
	if c.redis == nil {
		return c.next.PlaceName(ctx, lng, lat)
	}

	key := Key(lng, lat)
	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, redis.Nil):
		metrics.GeocodeCache.WithLabelValues("miss").Inc()
	default:
		metrics.GeocodeCache.WithLabelValues("error").Inc()
		c.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	}

	name, err := c.next.PlaceName(ctx, lng, lat)
	if err != nil {
		return "", err
	}
	if err := c.redis.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
	return name, nil
}
