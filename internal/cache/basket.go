// Package cache provides the Redis-backed basket cache. Entries carry a
// jittered TTL so a burst of page loads does not expire a whole cohort of
// baskets at once.
package cache

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/sheks-house/storefront/internal/domain/basket"
)

const (
	baseTTL   = 15 * time.Minute
	maxJitter = 5 * time.Minute
)

// BasketCache implements basket.Cache on Redis.
type BasketCache struct {
	client *redis.Client
}

var _ basket.Cache = (*BasketCache)(nil)

// NewBasketCache wraps the given Redis client.
func NewBasketCache(client *redis.Client) *BasketCache {
	return &BasketCache{client: client}
}

// Get returns the cached lines for a user, or basket.ErrCacheMiss.
func (c *BasketCache) Get(ctx context.Context, userID string) ([]basket.Line, error) {
	data, err := c.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, basket.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var lines []basket.Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, errors.Wrap(err, "unmarshal cached basket")
	}
	return lines, nil
}

// Set stores the user's lines with a jittered TTL.
func (c *BasketCache) Set(ctx context.Context, userID string, lines []basket.Line) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return errors.Wrap(err, "marshal basket")
	}

	ttl := baseTTL + rand.N(maxJitter)
	if err := c.client.Set(ctx, key(userID), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete invalidates the user's cached basket.
func (c *BasketCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func key(userID string) string {
	return "basket:" + userID
}

// Nop is a basket.Cache that stores nothing. Used when Redis is not
// configured; every read falls through to the database.
type Nop struct{}

var _ basket.Cache = Nop{}

func (Nop) Get(context.Context, string) ([]basket.Line, error) {
	return nil, basket.ErrCacheMiss
}
func (Nop) Set(context.Context, string, []basket.Line) error { return nil }
func (Nop) Delete(context.Context, string) error             { return nil }
