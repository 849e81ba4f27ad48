package gormstore

import (
	"context"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/padelcana/courtbook/pkg/booking"
	"gorm.io/gorm"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
	errorOperationStore   = "store"
	errorSubjectClub      = "club"
	errorSubjectCourt     = "court"
	errorSubjectBooking   = "booking"
	errorSubjectPayment   = "payment"
	errorSubjectUser      = "user"
	errorSubjectWebhook   = "webhook_event"
	errorCodeCreate       = "create"
	errorCodeExists       = "exists"
	errorCodeGet          = "get"
	errorCodeInvalid      = "invalid"
	errorCodeList         = "list"
	errorCodeLookup       = "lookup"
	errorCodeOverlap      = "overlap"
	errorCodeSweep        = "sweep"
	errorCodeUpdateStatus = "update_status"
	errorCodeUpsert       = "upsert"
)

// Store implements the booking, payment, and identity store contracts using
// GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// ListClubs returns every club, newest first.
func (store *Store) ListClubs(ctx context.Context) ([]booking.Club, error) {
	var rows []Club
	err := store.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectClub, errorCodeList, err)
	}
	clubs := make([]booking.Club, 0, len(rows))
	for _, row := range rows {
		clubs = append(clubs, mapClub(row))
	}
	return clubs, nil
}

// CreateClub inserts a club and returns the stored record.
func (store *Store) CreateClub(ctx context.Context, club booking.Club) (booking.Club, error) {
	row := Club{
		Name:     club.Name,
		Location: club.Location,
		IsResort: club.IsResort,
		Timezone: club.Timezone,
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return booking.Club{}, wrapStoreError(errorSubjectClub, errorCodeCreate, err)
	}
	return mapClub(row), nil
}

// GetClub returns the club record, or booking.ErrClubNotFound when absent.
func (store *Store) GetClub(ctx context.Context, clubID booking.ClubID) (booking.Club, error) {
	var row Club
	err := store.db.WithContext(ctx).
		Where("club_id = ?", clubID.String()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Club{}, booking.ErrClubNotFound
		}
		return booking.Club{}, wrapStoreError(errorSubjectClub, errorCodeGet, err)
	}
	return mapClub(row), nil
}

// ClubExists reports whether the club is present.
func (store *Store) ClubExists(ctx context.Context, clubID booking.ClubID) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Club{}).
		Where("club_id = ?", clubID.String()).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectClub, errorCodeExists, err)
	}
	return count > 0, nil
}

// ListCourts returns the club's courts ordered by creation time.
func (store *Store) ListCourts(ctx context.Context, clubID booking.ClubID) ([]booking.Court, error) {
	var rows []Court
	err := store.db.WithContext(ctx).
		Where("club_id = ?", clubID.String()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectCourt, errorCodeList, err)
	}
	courts := make([]booking.Court, 0, len(rows))
	for _, row := range rows {
		courts = append(courts, mapCourt(row))
	}
	return courts, nil
}

// CreateCourt inserts a court and returns the stored record.
func (store *Store) CreateCourt(ctx context.Context, court booking.Court) (booking.Court, error) {
	row := Court{
		ClubID:     court.ClubID,
		Name:       court.Name,
		PriceCents: court.PriceCents,
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return booking.Court{}, wrapStoreError(errorSubjectCourt, errorCodeCreate, err)
	}
	return mapCourt(row), nil
}

// CourtExists reports whether the court is present.
func (store *Store) CourtExists(ctx context.Context, courtID booking.CourtID) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Court{}).
		Where("court_id = ?", courtID.String()).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectCourt, errorCodeExists, err)
	}
	return count > 0, nil
}

// CreateBooking inserts a booking and returns the stored record.
func (store *Store) CreateBooking(ctx context.Context, bookingRecord booking.Booking) (booking.Booking, error) {
	row := Booking{
		CourtID:   bookingRecord.CourtID,
		UserID:    bookingRecord.UserID,
		StartTime: bookingRecord.StartTime.UTC(),
		EndTime:   bookingRecord.EndTime.UTC(),
		Status:    bookingRecord.Status.String(),
		ExpiresAt: bookingRecord.ExpiresAt,
	}
	if err := store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	mapped, err := mapBooking(row)
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return mapped, nil
}

// HasActiveOverlap reports whether any confirmed or unexpired pending-payment
// booking on the court overlaps the half-open range.
func (store *Store) HasActiveOverlap(ctx context.Context, courtID booking.CourtID, timeRange booking.TimeRange, now time.Time) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("court_id = ? AND start_time < ? AND end_time > ?", courtID.String(), timeRange.End(), timeRange.Start()).
		Where("status = ? OR (status = ? AND expires_at > ?)",
			booking.StatusConfirmed.String(), booking.StatusPendingPayment.String(), now).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectBooking, errorCodeOverlap, err)
	}
	return count > 0, nil
}

// ListActiveClubBookings returns confirmed and unexpired pending-payment
// bookings on the club's courts intersecting the given day.
func (store *Store) ListActiveClubBookings(ctx context.Context, clubID booking.ClubID, dayStart, dayEnd, now time.Time) ([]booking.Booking, error) {
	var rows []Booking
	err := store.db.WithContext(ctx).
		Joins("JOIN courts ON courts.court_id = bookings.court_id").
		Where("courts.club_id = ? AND bookings.start_time < ? AND bookings.end_time > ?", clubID.String(), dayEnd, dayStart).
		Where("bookings.status = ? OR (bookings.status = ? AND bookings.expires_at > ?)",
			booking.StatusConfirmed.String(), booking.StatusPendingPayment.String(), now).
		Order("bookings.start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	bookings := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		mapped, mapErr := mapBooking(row)
		if mapErr != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, mapErr)
		}
		bookings = append(bookings, mapped)
	}
	return bookings, nil
}

// ListUserBookings returns all of a user's bookings ascending by start time,
// joined with their courts.
func (store *Store) ListUserBookings(ctx context.Context, userID booking.UserID) ([]booking.BookingWithCourt, error) {
	var rows []Booking
	err := store.db.WithContext(ctx).
		Preload("Court").
		Where("user_id = ?", userID.String()).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	bookings := make([]booking.BookingWithCourt, 0, len(rows))
	for _, row := range rows {
		mapped, mapErr := mapBooking(row)
		if mapErr != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, mapErr)
		}
		bookings = append(bookings, booking.BookingWithCourt{
			Booking: mapped,
			Court:   mapCourt(row.Court),
		})
	}
	return bookings, nil
}

// ListClubBookings returns all bookings, regardless of status, on the club's
// courts overlapping [dayStart, dayEnd), joined with court and a restricted
// view of the owning user.
func (store *Store) ListClubBookings(ctx context.Context, clubID booking.ClubID, dayStart, dayEnd time.Time) ([]booking.ClubBooking, error) {
	var rows []Booking
	err := store.db.WithContext(ctx).
		Preload("Court").
		Preload("User").
		Joins("JOIN courts ON courts.court_id = bookings.court_id").
		Where("courts.club_id = ? AND bookings.start_time < ? AND bookings.end_time > ?", clubID.String(), dayEnd, dayStart).
		Order("bookings.start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	bookings := make([]booking.ClubBooking, 0, len(rows))
	for _, row := range rows {
		mapped, mapErr := mapBooking(row)
		if mapErr != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, mapErr)
		}
		bookings = append(bookings, booking.ClubBooking{
			Booking: mapped,
			Court:   mapCourt(row.Court),
			User: booking.UserSummary{
				UserID:    row.User.UserID,
				Email:     row.User.Email,
				Name:      row.User.Name,
				Role:      row.User.Role,
				ClubID:    row.User.ClubID,
				Language:  row.User.Language,
				CreatedAt: row.User.CreatedAt,
			},
		})
	}
	return bookings, nil
}

// CancelExpiredHolds cancels every pending-payment booking whose hold expired
// strictly before now. The status predicate makes the update safe against
// concurrent confirmations.
func (store *Store) CancelExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("status = ? AND expires_at < ?", booking.StatusPendingPayment.String(), now).
		Update("status", booking.StatusCancelled.String())
	if result.Error != nil {
		return 0, wrapStoreError(errorSubjectBooking, errorCodeSweep, result.Error)
	}
	return result.RowsAffected, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func mapClub(row Club) booking.Club {
	return booking.Club{
		ClubID:    row.ClubID,
		Name:      row.Name,
		Location:  row.Location,
		IsResort:  row.IsResort,
		Timezone:  row.Timezone,
		CreatedAt: row.CreatedAt,
	}
}

func mapCourt(row Court) booking.Court {
	return booking.Court{
		CourtID:    row.CourtID,
		ClubID:     row.ClubID,
		Name:       row.Name,
		PriceCents: row.PriceCents,
		CreatedAt:  row.CreatedAt,
	}
}

func mapBooking(row Booking) (booking.Booking, error) {
	status, err := booking.ParseBookingStatus(row.Status)
	if err != nil {
		return booking.Booking{}, err
	}
	return booking.Booking{
		BookingID: row.BookingID,
		CourtID:   row.CourtID,
		UserID:    row.UserID,
		StartTime: row.StartTime.UTC(),
		EndTime:   row.EndTime.UTC(),
		Status:    status,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
