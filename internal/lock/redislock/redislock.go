// Package redislock implements the reservation slot lock against Redis so
// that mutual exclusion holds across every server instance.
package redislock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker implements booking.SlotLocker on a shared Redis instance using
// SET NX PX for atomic set-if-absent-with-expiry and DEL for explicit release.
type Locker struct {
	client redis.UniversalClient
}

// New returns a Locker backed by the given client.
func New(client redis.UniversalClient) *Locker {
	return &Locker{client: client}
}

// Acquire takes the lock for at most ttl. It returns false without blocking
// when another holder owns the key.
func (locker *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return locker.client.SetNX(ctx, key, "1", ttl).Result()
}

// Release drops the lock. Deleting an already-expired key is a no-op.
func (locker *Locker) Release(ctx context.Context, key string) error {
	return locker.client.Del(ctx, key).Err()
}
