// Package memlock implements the reservation slot lock in process memory.
// It is correct only for a single server instance and loses every lock on
// restart; multi-instance deployments must use redislock instead.
package memlock

import (
	"context"
	"sync"
	"time"
)

// Locker is an in-process booking.SlotLocker with per-key expiry.
type Locker struct {
	mutex sync.Mutex
	held  map[string]time.Time
	nowFn func() time.Time
}

// New returns an empty Locker.
func New() *Locker {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock returns a Locker with an injected clock.
func NewWithClock(now func() time.Time) *Locker {
	return &Locker{
		held:  make(map[string]time.Time),
		nowFn: now,
	}
}

// Acquire takes the lock for at most ttl. A previously held key whose ttl has
// elapsed counts as free. Every slot key is distinct, so expired entries are
// swept here to keep the map from growing with dead keys.
func (locker *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	now := locker.nowFn()
	for heldKey, expiry := range locker.held {
		if !expiry.After(now) {
			delete(locker.held, heldKey)
		}
	}
	if _, exists := locker.held[key]; exists {
		return false, nil
	}
	locker.held[key] = now.Add(ttl)
	return true, nil
}

// Release drops the lock. Releasing a key that is not held is a no-op.
func (locker *Locker) Release(ctx context.Context, key string) error {
	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	delete(locker.held, key)
	return nil
}
