package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CartCountCache stores per-user cart item counts. Failures are logged and
// treated as misses so the cart keeps working when Redis is down.
type CartCountCache struct {
	client *Client
	ttl    time.Duration
}

// NewCartCountCache creates a cart count cache with the given entry TTL
func NewCartCountCache(client *Client, ttl time.Duration) *CartCountCache {
	return &CartCountCache{client: client, ttl: ttl}
}

func cartCountKey(userID uint) string {
	return fmt.Sprintf("cart:count:%d", userID)
}

// Get returns the cached count
func (c *CartCountCache) Get(ctx context.Context, userID uint) (int, bool) {
	count, err := c.client.Redis.Get(ctx, cartCountKey(userID)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).WithField("user_id", userID).Warn("Cart count cache read failed")
		}
		return 0, false
	}
	return count, true
}

// Set caches the count
func (c *CartCountCache) Set(ctx context.Context, userID uint, count int) {
	if err := c.client.Redis.Set(ctx, cartCountKey(userID), count, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Cart count cache write failed")
	}
}

// Invalidate drops the cached count
func (c *CartCountCache) Invalidate(ctx context.Context, userID uint) {
	if err := c.client.Redis.Del(ctx, cartCountKey(userID)).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Cart count cache invalidation failed")
	}
}
