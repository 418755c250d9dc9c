// Package cache fronts round status reads with Redis. The cache is strictly
// an optimization: every round mutation invalidates, and a miss falls through
// to the store, so staleness is bounded by the TTL and never changes what an
// allocation or a draw does.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"drawcore/internal/round/models"
	id "drawcore/pkg/domain"
)

const (
	roundStatusKeyPrefix = "round:status:"
	defaultTTL           = 5 * time.Second
)

// RedisStatusCache caches round snapshots as JSON with a short TTL.
type RedisStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the RedisStatusCache.
type Option func(*RedisStatusCache)

// WithTTL overrides the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisStatusCache) { c.ttl = ttl }
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisStatusCache) { c.logger = logger }
}

// NewRedisStatusCache constructs a Redis-backed status cache.
func NewRedisStatusCache(client *redis.Client, opts ...Option) *RedisStatusCache {
	cache := &RedisStatusCache{
		client: client,
		ttl:    defaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}
	return cache
}

// Get returns the cached round snapshot, or false on a miss. Redis errors
// degrade to a miss; the store is the source of truth.
func (c *RedisStatusCache) Get(ctx context.Context, roundID id.RoundID) (*models.Round, bool) {
	raw, err := c.client.Get(ctx, roundStatusKeyPrefix+roundID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "status cache read failed", "round_id", roundID, "error", err)
		return nil, false
	}

	var round models.Round
	if err := json.Unmarshal(raw, &round); err != nil {
		c.logger.WarnContext(ctx, "status cache entry corrupt", "round_id", roundID, "error", err)
		c.Invalidate(ctx, roundID)
		return nil, false
	}
	return &round, true
}

// Set stores the round snapshot with the configured TTL.
func (c *RedisStatusCache) Set(ctx context.Context, round *models.Round) {
	raw, err := json.Marshal(round)
	if err != nil {
		c.logger.WarnContext(ctx, "status cache marshal failed", "round_id", round.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, roundStatusKeyPrefix+round.ID.String(), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "status cache write failed", "round_id", round.ID, "error", err)
	}
}

// Invalidate drops the cached snapshot after a mutation.
func (c *RedisStatusCache) Invalidate(ctx context.Context, roundID id.RoundID) {
	if err := c.client.Del(ctx, roundStatusKeyPrefix+roundID.String()).Err(); err != nil {
		c.logger.WarnContext(ctx, "status cache invalidate failed", "round_id", roundID, "error", err)
	}
}
