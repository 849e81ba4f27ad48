package booking

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ClubID identifies a club.
type ClubID struct {
	value string
}

// CourtID identifies a court within a club.
type CourtID struct {
	value string
}

// UserID identifies a booking owner.
type UserID struct {
	value string
}

// BookingID identifies a booking.
type BookingID struct {
	value string
}

// CalendarDate is a canonical YYYY-MM-DD day.
type CalendarDate struct {
	value string
}

// BookingStatus defines the booking lifecycle.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusCancelled      BookingStatus = "CANCELLED"
)

// String returns the stored status value.
func (status BookingStatus) String() string {
	return string(status)
}

// ParseBookingStatus validates a raw status value.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	switch BookingStatus(raw) {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled:
		return BookingStatus(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// NewClubID validates and normalizes a club id.
func NewClubID(raw string) (ClubID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ClubID{}, fmt.Errorf("%w: empty value", ErrInvalidClubID)
	}
	return ClubID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id ClubID) String() string {
	return id.value
}

// NewCourtID validates and normalizes a court id.
func NewCourtID(raw string) (CourtID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CourtID{}, fmt.Errorf("%w: empty value", ErrInvalidCourtID)
	}
	return CourtID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id CourtID) String() string {
	return id.value
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// NewBookingID validates and normalizes a booking id.
func NewBookingID(raw string) (BookingID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return BookingID{}, fmt.Errorf("%w: empty value", ErrInvalidBookingID)
	}
	return BookingID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id BookingID) String() string {
	return id.value
}

// NewCalendarDate validates a literal YYYY-MM-DD day.
func NewCalendarDate(raw string) (CalendarDate, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := time.Parse(calendarDateLayout, trimmed); err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return CalendarDate{value: trimmed}, nil
}

// String returns the canonical YYYY-MM-DD value.
func (date CalendarDate) String() string {
	return date.value
}

// DayBoundsUTC returns the half-open [start, end) UTC instants of the day.
func (date CalendarDate) DayBoundsUTC() (time.Time, time.Time) {
	dayStart, _ := time.ParseInLocation(calendarDateLayout, date.value, time.UTC)
	return dayStart, dayStart.AddDate(0, 0, 1)
}

// TimeRange is a half-open [start, end) interval in UTC.
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange validates that both instants parse and end is strictly after start.
func NewTimeRange(start time.Time, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, fmt.Errorf("%w: zero instant", ErrInvalidTimeRange)
	}
	startUTC := start.UTC()
	endUTC := end.UTC()
	if !endUTC.After(startUTC) {
		return TimeRange{}, fmt.Errorf("%w: end must be after start", ErrInvalidTimeRange)
	}
	return TimeRange{start: startUTC, end: endUTC}, nil
}

// ParseTimeRange builds a TimeRange from two RFC 3339 timestamps.
func ParseTimeRange(rawStart string, rawEnd string) (TimeRange, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(rawStart))
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, rawStart)
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(rawEnd))
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, rawEnd)
	}
	return NewTimeRange(start, end)
}

// Start returns the inclusive start instant.
func (timeRange TimeRange) Start() time.Time {
	return timeRange.start
}

// End returns the exclusive end instant.
func (timeRange TimeRange) End() time.Time {
	return timeRange.end
}

// Overlaps applies the half-open overlap test against another range.
// Touching endpoints do not overlap.
func (timeRange TimeRange) Overlaps(other TimeRange) bool {
	return timeRange.start.Before(other.end) && timeRange.end.After(other.start)
}

// Club is a stored club record.
type Club struct {
	ClubID    string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	IsResort  bool      `json:"isResort"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
}

// Court is a stored court record.
type Court struct {
	CourtID    string    `json:"id"`
	ClubID     string    `json:"clubId"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Booking is a stored booking record.
type Booking struct {
	BookingID string        `json:"id"`
	CourtID   string        `json:"courtId"`
	UserID    string        `json:"userId"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Status    BookingStatus `json:"status"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Range returns the booking's half-open interval.
func (booking Booking) Range() (TimeRange, error) {
	return NewTimeRange(booking.StartTime, booking.EndTime)
}

// ActiveAt reports whether the booking blocks its slot at the given instant:
// confirmed, or pending payment with an unexpired hold.
func (booking Booking) ActiveAt(now time.Time) bool {
	if booking.Status == StatusConfirmed {
		return true
	}
	if booking.Status == StatusPendingPayment {
		return booking.ExpiresAt != nil && booking.ExpiresAt.After(now)
	}
	return false
}

// UserSummary is the credential-free view of a booking owner.
type UserSummary struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ClubID    *string   `json:"clubId"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookingWithCourt joins a booking with its court.
type BookingWithCourt struct {
	Booking
	Court Court `json:"court"`
}

// ClubBooking joins a booking with its court and a restricted user view.
type ClubBooking struct {
	Booking
	Court Court       `json:"court"`
	User  UserSummary `json:"user"`
}

// Slot is one bookable window in a court's availability grid.
type Slot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Available  bool      `json:"available"`
	PriceCents int64     `json:"price"`
}

// CourtAvailability is the slot grid for one court.
type CourtAvailability struct {
	CourtID   string `json:"courtId"`
	CourtName string `json:"courtName"`
	Slots     []Slot `json:"slots"`
}

// DayAvailability is the per-court slot grid for a club day.
type DayAvailability struct {
	ClubID string              `json:"clubId"`
	Date   string              `json:"date"`
	Courts []CourtAvailability `json:"courts"`
}

const calendarDateLayout = "2006-01-02"

// Store is the persistence contract used by Service.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	ListClubs(ctx context.Context) ([]Club, error)
	CreateClub(ctx context.Context, club Club) (Club, error)
	GetClub(ctx context.Context, clubID ClubID) (Club, error)
	ClubExists(ctx context.Context, clubID ClubID) (bool, error)
	ListCourts(ctx context.Context, clubID ClubID) ([]Court, error)
	CreateCourt(ctx context.Context, court Court) (Court, error)
	CourtExists(ctx context.Context, courtID CourtID) (bool, error)
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	HasActiveOverlap(ctx context.Context, courtID CourtID, timeRange TimeRange, now time.Time) (bool, error)
	ListActiveClubBookings(ctx context.Context, clubID ClubID, dayStart, dayEnd, now time.Time) ([]Booking, error)
	ListUserBookings(ctx context.Context, userID UserID) ([]BookingWithCourt, error)
	ListClubBookings(ctx context.Context, clubID ClubID, dayStart, dayEnd time.Time) ([]ClubBooking, error)
	CancelExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}
