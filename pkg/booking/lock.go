package booking

import (
	"context"
	"time"
)

// SlotLocker provides mutual exclusion on a reservation key. Correctness under
// multiple server instances requires an implementation backed by a shared
// external store; an in-process locker is sufficient only for a single
// instance.
type SlotLocker interface {
	// Acquire attempts to take the lock for at most ttl. It returns false
	// without blocking when the lock is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops the lock. Releasing a key that is not held is a no-op.
	Release(ctx context.Context, key string) error
}

// SlotLockKey derives the reservation lock key for a court and start instant.
func SlotLockKey(courtID CourtID, start time.Time) string {
	return slotLockKeyPrefix + courtID.String() + ":" + start.UTC().Format(time.RFC3339)
}
