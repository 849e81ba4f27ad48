package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateClubDefaultsTimezone(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	service := mustNewService(test, store, newStubLocker())

	created, err := service.CreateClub(context.Background(), "Centro Padel", "Madrid", false, "")
	if err != nil {
		test.Fatalf("create club: %v", err)
	}
	if created.Timezone != "UTC" {
		test.Fatalf("expected UTC default, got %q", created.Timezone)
	}
	if created.ClubID == "" {
		test.Fatal("expected generated club id")
	}
}

func TestCreateClubRejectsUnknownTimezone(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(), newStubLocker())

	_, err := service.CreateClub(context.Background(), "Centro Padel", "Madrid", false, "Mars/Olympus")
	if !errors.Is(err, ErrInvalidTimezone) {
		test.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
}

func TestCreateClubRequiresName(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(), newStubLocker())

	_, err := service.CreateClub(context.Background(), "", "Madrid", false, "UTC")
	if !errors.Is(err, ErrInvalidClubName) {
		test.Fatalf("expected ErrInvalidClubName, got %v", err)
	}
}

func TestRegisterCourtValidation(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.clubs = append(store.clubs, Club{ClubID: "club-1"})
	service := mustNewService(test, store, newStubLocker())
	clubID := mustClubID(test, "club-1")

	if _, err := service.RegisterCourt(context.Background(), clubID, "", 4500); !errors.Is(err, ErrInvalidCourtName) {
		test.Fatalf("expected ErrInvalidCourtName, got %v", err)
	}
	if _, err := service.RegisterCourt(context.Background(), clubID, "Court 1", 0); !errors.Is(err, ErrInvalidPriceCents) {
		test.Fatalf("expected ErrInvalidPriceCents, got %v", err)
	}
	if _, err := service.RegisterCourt(context.Background(), mustClubID(test, "missing"), "Court 1", 4500); !errors.Is(err, ErrClubNotFound) {
		test.Fatalf("expected ErrClubNotFound, got %v", err)
	}

	created, err := service.RegisterCourt(context.Background(), clubID, "Court 1", 4500)
	if err != nil {
		test.Fatalf("register court: %v", err)
	}
	if created.ClubID != "club-1" || created.PriceCents != 4500 {
		test.Fatalf("unexpected court record: %+v", created)
	}
}

func TestCourtsByClubUnknownClub(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(), newStubLocker())

	_, err := service.CourtsByClub(context.Background(), mustClubID(test, "missing"))
	if !errors.Is(err, ErrClubNotFound) {
		test.Fatalf("expected ErrClubNotFound, got %v", err)
	}
}

func TestFindByClubAndDateFiltersByDay(test *testing.T) {
	test.Parallel()
	store := newStubStore()
	store.clubs = append(store.clubs, Club{ClubID: "club-1"})
	store.courts = append(store.courts, Court{CourtID: "court-1", ClubID: "club-1"})
	store.bookings = append(store.bookings,
		Booking{
			BookingID: "on-day",
			CourtID:   "court-1",
			UserID:    "user-1",
			StartTime: time.Date(2025, 3, 11, 9, 30, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
			Status:    StatusCancelled,
		},
		Booking{
			BookingID: "next-day",
			CourtID:   "court-1",
			UserID:    "user-1",
			StartTime: time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 3, 12, 11, 0, 0, 0, time.UTC),
			Status:    StatusConfirmed,
		},
	)
	service := mustNewService(test, store, newStubLocker())

	matched, err := service.FindByClubAndDate(context.Background(), mustClubID(test, "club-1"), "2025-03-11")
	if err != nil {
		test.Fatalf("find by club and date: %v", err)
	}
	if len(matched) != 1 {
		test.Fatalf("expected 1 booking on the day, got %d", len(matched))
	}
	if matched[0].BookingID != "on-day" {
		test.Fatalf("unexpected booking: %s", matched[0].BookingID)
	}
	if matched[0].Status != StatusCancelled {
		test.Fatal("admin listing must include non-active bookings")
	}
}

func TestFindByClubAndDateRejectsBadDate(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(), newStubLocker())

	_, err := service.FindByClubAndDate(context.Background(), mustClubID(test, "club-1"), "someday")
	if !errors.Is(err, ErrInvalidDate) {
		test.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
