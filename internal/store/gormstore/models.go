package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Club represents the clubs table.
type Club struct {
	ClubID    string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Location  string    `gorm:"not null"`
	IsResort  bool      `gorm:"not null;default:false"`
	Timezone  string    `gorm:"not null;default:UTC"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Club) TableName() string { return "clubs" }

func (club *Club) BeforeCreate(tx *gorm.DB) error {
	if club.ClubID == "" {
		club.ClubID = uuid.NewString()
	}
	return nil
}

// Court represents the courts table.
type Court struct {
	CourtID    string    `gorm:"type:uuid;primaryKey"`
	ClubID     string    `gorm:"type:uuid;not null;index:idx_courts_club_created,priority:1"`
	Name       string    `gorm:"not null"`
	PriceCents int64     `gorm:"column:price;not null"`
	CreatedAt  time.Time `gorm:"not null;index:idx_courts_club_created,priority:2"`
}

func (Court) TableName() string { return "courts" }

func (court *Court) BeforeCreate(tx *gorm.DB) error {
	if court.CourtID == "" {
		court.CourtID = uuid.NewString()
	}
	return nil
}

// User represents the users table. Email is stored lowercased and unique.
type User struct {
	UserID       string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex:uniq_users_email"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	ClubID       *string   `gorm:"type:uuid"`
	Language     string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

func (user *User) BeforeCreate(tx *gorm.DB) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	return nil
}

// Booking represents the bookings table.
type Booking struct {
	BookingID string     `gorm:"type:uuid;primaryKey"`
	CourtID   string     `gorm:"type:uuid;not null;index:idx_bookings_court_start,priority:1"`
	UserID    string     `gorm:"type:uuid;not null;index:idx_bookings_user"`
	StartTime time.Time  `gorm:"not null;index:idx_bookings_court_start,priority:2"`
	EndTime   time.Time  `gorm:"not null"`
	Status    string     `gorm:"not null;index:idx_bookings_status_expires,priority:1"`
	ExpiresAt *time.Time `gorm:"index:idx_bookings_status_expires,priority:2"`
	CreatedAt time.Time  `gorm:"not null"`

	Court Court `gorm:"foreignKey:CourtID;references:CourtID"`
	User  User  `gorm:"foreignKey:UserID;references:UserID"`
}

func (Booking) TableName() string { return "bookings" }

func (booking *Booking) BeforeCreate(tx *gorm.DB) error {
	if booking.BookingID == "" {
		booking.BookingID = uuid.NewString()
	}
	return nil
}

// Payment represents the payments table, one row per booking.
type Payment struct {
	BookingID   string    `gorm:"type:uuid;primaryKey"`
	AmountCents int64     `gorm:"column:amount;not null"`
	Currency    string    `gorm:"not null"`
	IntentID    *string   `gorm:"column:stripe_intent_id;uniqueIndex:uniq_payments_intent"`
	Status      string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// WebhookEvent records every verified processor event for auditing and
// duplicate detection.
type WebhookEvent struct {
	EventID   string         `gorm:"primaryKey"`
	Type      string         `gorm:"not null"`
	IntentID  string         `gorm:"index:idx_webhook_events_intent"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// Models lists every table for auto-migration.
func Models() []any {
	return []any{&Club{}, &Court{}, &User{}, &Booking{}, &Payment{}, &WebhookEvent{}}
}
