// Package cache provides the Redis-backed checkout idempotency store.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "checkout:idem:"

// Idempotency claims checkout idempotency keys via SETNX with a TTL.
// A retried submission within the TTL sees its key already claimed and is
// rejected before any pricing work happens.
type Idempotency struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotency creates an Idempotency store with the given key lifetime.
func NewIdempotency(client *redis.Client, ttl time.Duration) *Idempotency {
	return &Idempotency{client: client, ttl: ttl}
}

// Begin claims the key. It reports true when this is the first claim.
func (i *Idempotency) Begin(ctx context.Context, key string) (bool, error) {
	return i.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, i.ttl).Result()
}
