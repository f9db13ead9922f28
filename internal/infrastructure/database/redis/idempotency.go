package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPending = "pending"

// IdempotencyStore keeps checkout idempotency keys. A key holds "pending"
// while the checkout runs and the created order ID afterwards.
type IdempotencyStore struct {
	client *Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an idempotency store with the given key TTL
func NewIdempotencyStore(client *Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func idempotencyKey(userID uint, key string) string {
	return fmt.Sprintf("idempotency:checkout:%d:%s", userID, key)
}

// Reserve claims key for the user. When it is already claimed the stored
// order ID is returned, or 0 while the first checkout is still pending.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID uint, key string) (uint, bool, error) {
	redisKey := idempotencyKey(userID, key)

	ok, err := s.client.Redis.SetNX(ctx, redisKey, idempotencyPending, s.ttl).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return 0, true, nil
	}

	value, err := s.client.Redis.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			return s.Reserve(ctx, userID, key)
		}
		return 0, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if value == idempotencyPending {
		return 0, false, nil
	}

	orderID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", value, err)
	}
	return uint(orderID), false, nil
}

// Complete records the order created under key
func (s *IdempotencyStore) Complete(ctx context.Context, userID uint, key string, orderID uint) error {
	value := strconv.FormatUint(uint64(orderID), 10)
	if err := s.client.Redis.Set(ctx, idempotencyKey(userID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release frees key after a failed checkout so the client can retry
func (s *IdempotencyStore) Release(ctx context.Context, userID uint, key string) error {
	if err := s.client.Redis.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
