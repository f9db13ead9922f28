package order

import "context"

// IdempotencyStore deduplicates checkouts carrying the same Idempotency-Key.
//
// Reserve claims the key for the user. When the key is already taken it
// returns reserved=false together with the order created under it, or 0
// while the first request is still running.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID uint, key string) (orderID uint, reserved bool, err error)
	Complete(ctx context.Context, userID uint, key string, orderID uint) error
	Release(ctx context.Context, userID uint, key string) error
}
