package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

func TestReserveCreatesPendingHold(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1", PriceCents: 4500})
	service := mustNewService(test, store, newStubLocker())
	timeRange := mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z")

	created, err := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "court-1"), timeRange)
	if err != nil {
		test.Fatalf("reserve: %v", err)
	}
	if created.Status != StatusPendingPayment {
		test.Fatalf("expected PENDING_PAYMENT, got %s", created.Status)
	}
	if created.ExpiresAt == nil {
		test.Fatal("expected a hold expiry")
	}
	if got, want := *created.ExpiresAt, testNow.Add(HoldDuration); !got.Equal(want) {
		test.Fatalf("expected expiry %s, got %s", want, got)
	}
	if len(store.bookings) != 1 {
		test.Fatalf("expected 1 stored booking, got %d", len(store.bookings))
	}
}

func TestReserveRejectsOverlap(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	store.bookings = append(store.bookings, Booking{
		BookingID: "existing",
		CourtID:   "court-1",
		StartTime: time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
		Status:    StatusConfirmed,
	})
	service := mustNewService(test, store, newStubLocker())
	timeRange := mustTimeRange(test, "2025-03-11T10:00:00Z", "2025-03-11T11:30:00Z")

	_, err := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "court-1"), timeRange)
	if !errors.Is(err, ErrSlotTaken) {
		test.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(store.bookings) != 1 {
		test.Fatalf("expected no new booking, got %d", len(store.bookings))
	}
}

func TestReserveAllowsTouchingRanges(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	store.bookings = append(store.bookings, Booking{
		BookingID: "existing",
		CourtID:   "court-1",
		StartTime: time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
		Status:    StatusConfirmed,
	})
	service := mustNewService(test, store, newStubLocker())
	timeRange := mustTimeRange(test, "2025-03-11T11:00:00Z", "2025-03-11T12:30:00Z")

	if _, err := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "court-1"), timeRange); err != nil {
		test.Fatalf("expected adjacent reservation to succeed, got %v", err)
	}
}

func TestReserveIgnoresExpiredHold(test *testing.T) {
	test.Parallel()
	expired := testNow.Add(-time.Second)
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	store.bookings = append(store.bookings, Booking{
		BookingID: "stale-hold",
		CourtID:   "court-1",
		StartTime: time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
		Status:    StatusPendingPayment,
		ExpiresAt: &expired,
	})
	service := mustNewService(test, store, newStubLocker())
	timeRange := mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z")

	if _, err := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "court-1"), timeRange); err != nil {
		test.Fatalf("expected expired hold to be ignored, got %v", err)
	}
}

func TestReserveUnknownCourt(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(), newStubLocker())
	timeRange := mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z")

	_, err := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "missing"), timeRange)
	if !errors.Is(err, ErrCourtNotFound) {
		test.Fatalf("expected ErrCourtNotFound, got %v", err)
	}
}

func TestReserveContendedLock(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	locker := newStubLocker()
	timeRange := mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z")
	lockKey := SlotLockKey(mustCourtID(test, "court-1"), timeRange.Start())
	if acquired, err := locker.Acquire(context.Background(), lockKey, SlotLockTTL); err != nil || !acquired {
		test.Fatalf("pre-acquire lock: acquired=%v err=%v", acquired, err)
	}
	service := mustNewService(test, store, locker)

	_, err := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "court-1"), timeRange)
	if !errors.Is(err, ErrSlotLocked) {
		test.Fatalf("expected ErrSlotLocked, got %v", err)
	}
	if len(store.bookings) != 0 {
		test.Fatalf("expected store untouched, got %d bookings", len(store.bookings))
	}
}

func TestReserveReleasesLockOnConflict(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	store.bookings = append(store.bookings, Booking{
		BookingID: "existing",
		CourtID:   "court-1",
		StartTime: time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
		Status:    StatusConfirmed,
	})
	locker := newStubLocker()
	service := mustNewService(test, store, locker)
	timeRange := mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z")

	_, firstErr := service.Reserve(context.Background(), mustUserID(test, "user-1"), mustCourtID(test, "court-1"), timeRange)
	if !errors.Is(firstErr, ErrSlotTaken) {
		test.Fatalf("expected ErrSlotTaken, got %v", firstErr)
	}
	_, secondErr := service.Reserve(context.Background(), mustUserID(test, "user-2"), mustCourtID(test, "court-1"), timeRange)
	if errors.Is(secondErr, ErrSlotLocked) {
		test.Fatal("lock was not released after the first attempt")
	}
	if !errors.Is(secondErr, ErrSlotTaken) {
		test.Fatalf("expected ErrSlotTaken on retry, got %v", secondErr)
	}
}

func TestReserveReleasesLockAfterRequestCancelled(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	locker := &releaseRecordingLocker{}
	service := mustNewService(test, store, locker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = service.Reserve(ctx, mustUserID(test, "user-1"), mustCourtID(test, "court-1"),
		mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z"))

	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	if !locker.released {
		test.Fatal("expected the slot lock to be released")
	}
	if locker.releaseCtxErr != nil {
		test.Fatalf("release must not inherit the caller's cancellation, got %v", locker.releaseCtxErr)
	}
}

func TestReserveConcurrentSameSlot(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	service := mustNewService(test, store, newStubLocker())
	timeRange := mustTimeRange(test, "2025-03-11T09:30:00Z", "2025-03-11T11:00:00Z")

	const attempts = 16
	results := make(chan error, attempts)
	var group sync.WaitGroup
	for index := 0; index < attempts; index++ {
		group.Add(1)
		userID := mustUserID(test, fmt.Sprintf("user-%d", index))
		go func() {
			defer group.Done()
			_, err := service.Reserve(context.Background(), userID, mustCourtID(test, "court-1"), timeRange)
			results <- err
		}()
	}
	group.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrSlotLocked):
		default:
			test.Fatalf("unexpected reserve error: %v", err)
		}
	}
	if successes != 1 {
		test.Fatalf("expected exactly 1 successful reservation, got %d", successes)
	}
}

func TestSlotLockKeyShape(test *testing.T) {
	test.Parallel()
	start := time.Date(2025, 3, 11, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	key := SlotLockKey(mustCourtID(test, "court-7"), start)
	if key != "lock:court:court-7:2025-03-11T08:30:00Z" {
		test.Fatalf("unexpected lock key: %s", key)
	}
}

func mustNewService(test *testing.T, store Store, locker SlotLocker, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, locker, func() time.Time { return testNow }, options...)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustUserID(test *testing.T, raw string) UserID {
	test.Helper()
	userID, err := NewUserID(raw)
	if err != nil {
		test.Fatalf("user id %q: %v", raw, err)
	}
	return userID
}

func mustCourtID(test *testing.T, raw string) CourtID {
	test.Helper()
	courtID, err := NewCourtID(raw)
	if err != nil {
		test.Fatalf("court id %q: %v", raw, err)
	}
	return courtID
}

func mustClubID(test *testing.T, raw string) ClubID {
	test.Helper()
	clubID, err := NewClubID(raw)
	if err != nil {
		test.Fatalf("club id %q: %v", raw, err)
	}
	return clubID
}

func mustTimeRange(test *testing.T, rawStart string, rawEnd string) TimeRange {
	test.Helper()
	timeRange, err := ParseTimeRange(rawStart, rawEnd)
	if err != nil {
		test.Fatalf("time range %q-%q: %v", rawStart, rawEnd, err)
	}
	return timeRange
}

type stubStore struct {
	mutex         sync.Mutex
	clubs         []Club
	courts        []Court
	bookings      []Booking
	users         map[string]UserSummary
	sweepCalledAt []time.Time
}

func newStubStore() *stubStore {
	return &stubStore{users: make(map[string]UserSummary)}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *stubStore) ListClubs(ctx context.Context) ([]Club, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return append([]Club(nil), store.clubs...), nil
}

func (store *stubStore) CreateClub(ctx context.Context, club Club) (Club, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	club.ClubID = fmt.Sprintf("club-%d", len(store.clubs)+1)
	club.CreatedAt = testNow
	store.clubs = append(store.clubs, club)
	return club, nil
}

func (store *stubStore) GetClub(ctx context.Context, clubID ClubID) (Club, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, club := range store.clubs {
		if club.ClubID == clubID.String() {
			return club, nil
		}
	}
	return Club{}, ErrClubNotFound
}

func (store *stubStore) ClubExists(ctx context.Context, clubID ClubID) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, club := range store.clubs {
		if club.ClubID == clubID.String() {
			return true, nil
		}
	}
	return false, nil
}

func (store *stubStore) ListCourts(ctx context.Context, clubID ClubID) ([]Court, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	var courts []Court
	for _, court := range store.courts {
		if court.ClubID == clubID.String() {
			courts = append(courts, court)
		}
	}
	return courts, nil
}

func (store *stubStore) CreateCourt(ctx context.Context, court Court) (Court, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	court.CourtID = fmt.Sprintf("court-%d", len(store.courts)+1)
	court.CreatedAt = testNow
	store.courts = append(store.courts, court)
	return court, nil
}

func (store *stubStore) CourtExists(ctx context.Context, courtID CourtID) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, court := range store.courts {
		if court.CourtID == courtID.String() {
			return true, nil
		}
	}
	return false, nil
}

func (store *stubStore) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	booking.BookingID = fmt.Sprintf("booking-%d", len(store.bookings)+1)
	booking.CreatedAt = testNow
	store.bookings = append(store.bookings, booking)
	return booking, nil
}

func (store *stubStore) HasActiveOverlap(ctx context.Context, courtID CourtID, timeRange TimeRange, now time.Time) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, existing := range store.bookings {
		if existing.CourtID != courtID.String() || !existing.ActiveAt(now) {
			continue
		}
		if timeRange.Start().Before(existing.EndTime) && timeRange.End().After(existing.StartTime) {
			return true, nil
		}
	}
	return false, nil
}

func (store *stubStore) ListActiveClubBookings(ctx context.Context, clubID ClubID, dayStart, dayEnd, now time.Time) ([]Booking, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	courtClub := make(map[string]string, len(store.courts))
	for _, court := range store.courts {
		courtClub[court.CourtID] = court.ClubID
	}
	var active []Booking
	for _, existing := range store.bookings {
		if courtClub[existing.CourtID] != clubID.String() || !existing.ActiveAt(now) {
			continue
		}
		if existing.StartTime.Before(dayEnd) && existing.EndTime.After(dayStart) {
			active = append(active, existing)
		}
	}
	return active, nil
}

func (store *stubStore) ListUserBookings(ctx context.Context, userID UserID) ([]BookingWithCourt, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	courtsByID := make(map[string]Court, len(store.courts))
	for _, court := range store.courts {
		courtsByID[court.CourtID] = court
	}
	var owned []BookingWithCourt
	for _, existing := range store.bookings {
		if existing.UserID == userID.String() {
			owned = append(owned, BookingWithCourt{Booking: existing, Court: courtsByID[existing.CourtID]})
		}
	}
	return owned, nil
}

func (store *stubStore) ListClubBookings(ctx context.Context, clubID ClubID, dayStart, dayEnd time.Time) ([]ClubBooking, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	courtsByID := make(map[string]Court, len(store.courts))
	for _, court := range store.courts {
		courtsByID[court.CourtID] = court
	}
	var matched []ClubBooking
	for _, existing := range store.bookings {
		court, ok := courtsByID[existing.CourtID]
		if !ok || court.ClubID != clubID.String() {
			continue
		}
		if existing.StartTime.Before(dayEnd) && existing.EndTime.After(dayStart) {
			matched = append(matched, ClubBooking{
				Booking: existing,
				Court:   court,
				User:    store.users[existing.UserID],
			})
		}
	}
	return matched, nil
}

func (store *stubStore) CancelExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.sweepCalledAt = append(store.sweepCalledAt, now)
	var cancelled int64
	for index, existing := range store.bookings {
		if existing.Status != StatusPendingPayment || existing.ExpiresAt == nil {
			continue
		}
		if existing.ExpiresAt.Before(now) {
			store.bookings[index].Status = StatusCancelled
			cancelled++
		}
	}
	return cancelled, nil
}

// releaseRecordingLocker captures the context its Release is called with.
type releaseRecordingLocker struct {
	mutex         sync.Mutex
	released      bool
	releaseCtxErr error
}

func (locker *releaseRecordingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (locker *releaseRecordingLocker) Release(ctx context.Context, key string) error {
	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	locker.released = true
	locker.releaseCtxErr = ctx.Err()
	return nil
}

type stubLocker struct {
	mutex sync.Mutex
	held  map[string]bool
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: make(map[string]bool)}
}

func (locker *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	if locker.held[key] {
		return false, nil
	}
	locker.held[key] = true
	return true, nil
}

func (locker *stubLocker) Release(ctx context.Context, key string) error {
	locker.mutex.Lock()
	defer locker.mutex.Unlock()
	delete(locker.held, key)
	return nil
}
