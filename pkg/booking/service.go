package booking

import (
	"context"
	"fmt"
	"time"
)

// Service contains the reservation domain logic over a Store and a SlotLocker.
type Service struct {
	store  Store
	locker SlotLocker
	nowFn  func() time.Time
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, locker SlotLocker, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if locker == nil {
		return nil, fmt.Errorf("%w: locker dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, locker: locker, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Reserve creates a payment hold for a court and time range. The overlap check
// and the write both happen while holding an exclusive lock on the
// (court, start) pair so that two concurrent requests for the same slot cannot
// both pass the check. The lock is released on every exit path rather than
// left to expire by TTL.
func (service *Service) Reserve(ctx context.Context, userID UserID, courtID CourtID, timeRange TimeRange) (Booking, error) {
	lockKey := SlotLockKey(courtID, timeRange.Start())

	acquired, err := service.locker.Acquire(ctx, lockKey, SlotLockTTL)
	if err != nil {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, WrapError(operationReserve, "lock", "acquire", err))
	}
	if !acquired {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, ErrSlotLocked)
	}
	// Release must run even when the request context is already cancelled,
	// otherwise the slot stays locked for the full TTL.
	defer func() {
		_ = service.locker.Release(context.WithoutCancel(ctx), lockKey)
	}()

	exists, err := service.store.CourtExists(ctx, courtID)
	if err != nil {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, err)
	}
	if !exists {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, ErrCourtNotFound)
	}

	now := service.nowFn().UTC()
	overlaps, err := service.store.HasActiveOverlap(ctx, courtID, timeRange, now)
	if err != nil {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, err)
	}
	if overlaps {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, ErrSlotTaken)
	}

	expiresAt := now.Add(HoldDuration)
	created, err := service.store.CreateBooking(ctx, Booking{
		CourtID:   courtID.String(),
		UserID:    userID.String(),
		StartTime: timeRange.Start(),
		EndTime:   timeRange.End(),
		Status:    StatusPendingPayment,
		ExpiresAt: &expiresAt,
	})
	if err != nil {
		return Booking{}, service.logReserve(ctx, userID, courtID, lockKey, Booking{}, err)
	}
	_ = service.logReserve(ctx, userID, courtID, lockKey, created, nil)
	return created, nil
}

// FindMine returns all of a user's bookings ascending by start time, each
// joined with its court.
func (service *Service) FindMine(ctx context.Context, userID UserID) ([]BookingWithCourt, error) {
	return service.store.ListUserBookings(ctx, userID)
}

// FindByClubAndDate returns all bookings, regardless of status, on the club's
// courts overlapping the given calendar day. The raw date goes through the
// normalizer first.
func (service *Service) FindByClubAndDate(ctx context.Context, clubID ClubID, rawDate string) ([]ClubBooking, error) {
	date, err := NormalizeDate(rawDate, "")
	if err != nil {
		return nil, err
	}
	dayStart, dayEnd := date.DayBoundsUTC()
	return service.store.ListClubBookings(ctx, clubID, dayStart, dayEnd)
}

// ListClubs returns every club, newest first.
func (service *Service) ListClubs(ctx context.Context) ([]Club, error) {
	return service.store.ListClubs(ctx)
}

// CreateClub registers a club.
func (service *Service) CreateClub(ctx context.Context, name string, location string, isResort bool, timezone string) (Club, error) {
	if name == "" {
		return Club{}, fmt.Errorf("%w: empty value", ErrInvalidClubName)
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return Club{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidTimezone, timezone)
	}
	return service.store.CreateClub(ctx, Club{
		Name:     name,
		Location: location,
		IsResort: isResort,
		Timezone: timezone,
	})
}

// CourtsByClub returns the club's courts ordered by creation time.
func (service *Service) CourtsByClub(ctx context.Context, clubID ClubID) ([]Court, error) {
	exists, err := service.store.ClubExists(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrClubNotFound
	}
	return service.store.ListCourts(ctx, clubID)
}

// RegisterCourt adds a court to an existing club.
func (service *Service) RegisterCourt(ctx context.Context, clubID ClubID, name string, priceCents int64) (Court, error) {
	if name == "" {
		return Court{}, fmt.Errorf("%w: empty value", ErrInvalidCourtName)
	}
	if priceCents <= 0 {
		return Court{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidPriceCents)
	}
	exists, err := service.store.ClubExists(ctx, clubID)
	if err != nil {
		return Court{}, err
	}
	if !exists {
		return Court{}, ErrClubNotFound
	}
	return service.store.CreateCourt(ctx, Court{
		ClubID:     clubID.String(),
		Name:       name,
		PriceCents: priceCents,
	})
}

func (service *Service) logReserve(ctx context.Context, userID UserID, courtID CourtID, lockKey string, created Booking, operationError error) error {
	if service.logger == nil {
		return operationError
	}
	entry := OperationLog{
		Operation: operationReserve,
		UserID:    userID,
		CourtID:   courtID,
		LockKey:   lockKey,
		Error:     operationError,
	}
	if created.BookingID != "" {
		bookingID, err := NewBookingID(created.BookingID)
		if err == nil {
			entry.BookingID = bookingID
		}
	}
	if operationError != nil {
		entry.Status = operationStatusError
	} else {
		entry.Status = operationStatusOK
	}
	service.logger.LogOperation(ctx, entry)
	return operationError
}
