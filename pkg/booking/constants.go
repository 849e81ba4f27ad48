package booking

import "time"

const (
	// SlotDuration is the fixed bookable slot length within a club's open hours.
	SlotDuration = 90 * time.Minute

	// OpenHour and CloseHour bound the bookable window of a club day.
	OpenHour  = 8
	CloseHour = 22

	// SlotLockTTL caps how long a reservation lock may be held before the
	// lock store expires it on behalf of a crashed holder.
	SlotLockTTL = 30 * time.Second

	// HoldDuration is how long a PENDING_PAYMENT booking reserves its slot
	// before the expiry sweep reclaims it.
	HoldDuration = 10 * time.Minute

	slotLockKeyPrefix = "lock:court:"
)
