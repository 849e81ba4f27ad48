package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/padelcana/courtbook/pkg/booking"
	"github.com/padelcana/courtbook/pkg/payment"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetBookingCharge loads a booking's lifecycle status and the price of its
// court.
func (store *Store) GetBookingCharge(ctx context.Context, bookingID string) (payment.BookingCharge, error) {
	var row struct {
		BookingID string
		Status    string
		Price     int64
	}
	err := store.db.WithContext(ctx).
		Model(&Booking{}).
		Select("bookings.booking_id, bookings.status, courts.price").
		Joins("JOIN courts ON courts.court_id = bookings.court_id").
		Where("bookings.booking_id = ?", bookingID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payment.BookingCharge{}, wrapStoreError(errorSubjectBooking, errorCodeGet, payment.ErrBookingNotFound)
		}
		return payment.BookingCharge{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return payment.BookingCharge{
		BookingID:  row.BookingID,
		Status:     row.Status,
		PriceCents: row.Price,
	}, nil
}

// GetPayment returns the booking's payment row, or nil when none exists yet.
func (store *Store) GetPayment(ctx context.Context, bookingID string) (*payment.Payment, error) {
	var row Payment
	err := store.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrapStoreError(errorSubjectPayment, errorCodeGet, err)
	}
	mapped := mapPayment(row)
	return &mapped, nil
}

// UpsertPendingPayment creates or resets the booking's payment row to
// REQUIRES_PAYMENT with the current charge amount.
func (store *Store) UpsertPendingPayment(ctx context.Context, bookingID string, amountCents int64, currency string) error {
	row := Payment{
		BookingID:   bookingID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      payment.StatusRequiresPayment.String(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "status", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeUpsert, err)
	}
	return nil
}

// MarkPaymentProcessing records the processor intent reference and moves the
// payment to PROCESSING.
func (store *Store) MarkPaymentProcessing(ctx context.Context, bookingID string, intentID string) error {
	err := store.db.WithContext(ctx).
		Model(&Payment{}).
		Where("booking_id = ?", bookingID).
		Updates(map[string]any{
			"stripe_intent_id": intentID,
			"status":           payment.StatusProcessing.String(),
		}).Error
	if err != nil {
		return wrapStoreError(errorSubjectPayment, errorCodeUpdateStatus, err)
	}
	return nil
}

// BookingIDByIntent resolves a booking from a processor intent reference. An
// empty result means the reference is unknown.
func (store *Store) BookingIDByIntent(ctx context.Context, intentID string) (string, error) {
	var row Payment
	err := store.db.WithContext(ctx).
		Select("booking_id").
		Where("stripe_intent_id = ?", intentID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", wrapStoreError(errorSubjectPayment, errorCodeLookup, err)
	}
	return row.BookingID, nil
}

// ConfirmPaidBooking atomically marks the payment SUCCEEDED and the booking
// CONFIRMED. Repeating the transition is a no-op.
func (store *Store) ConfirmPaidBooking(ctx context.Context, bookingID string) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		if err := transaction.
			Model(&Payment{}).
			Where("booking_id = ?", bookingID).
			Update("status", payment.StatusSucceeded.String()).Error; err != nil {
			return wrapStoreError(errorSubjectPayment, errorCodeUpdateStatus, err)
		}
		if err := transaction.
			Model(&Booking{}).
			Where("booking_id = ?", bookingID).
			Update("status", booking.StatusConfirmed.String()).Error; err != nil {
			return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, err)
		}
		return nil
	})
}

// CancelFailedBooking atomically marks the payment FAILED and cancels the
// booking only if it is still PENDING_PAYMENT, so an independently confirmed
// booking is never clobbered.
func (store *Store) CancelFailedBooking(ctx context.Context, bookingID string) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		if err := transaction.
			Model(&Payment{}).
			Where("booking_id = ?", bookingID).
			Update("status", payment.StatusFailed.String()).Error; err != nil {
			return wrapStoreError(errorSubjectPayment, errorCodeUpdateStatus, err)
		}
		if err := transaction.
			Model(&Booking{}).
			Where("booking_id = ? AND status = ?", bookingID, booking.StatusPendingPayment.String()).
			Update("status", booking.StatusCancelled.String()).Error; err != nil {
			return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, err)
		}
		return nil
	})
}

// RecordWebhookEvent stores a verified processor event. Duplicate deliveries
// of the same event id are ignored.
func (store *Store) RecordWebhookEvent(ctx context.Context, event payment.Event) error {
	row := WebhookEvent{
		EventID:   event.EventID,
		Type:      event.Type,
		IntentID:  event.IntentID,
		Payload:   datatypes.JSON(event.Payload),
		CreatedAt: time.Now().UTC(),
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return wrapStoreError(errorSubjectWebhook, errorCodeCreate, err)
	}
	return nil
}

func mapPayment(row Payment) payment.Payment {
	intentID := ""
	if row.IntentID != nil {
		intentID = *row.IntentID
	}
	return payment.Payment{
		BookingID:   row.BookingID,
		AmountCents: row.AmountCents,
		Currency:    row.Currency,
		IntentID:    intentID,
		Status:      payment.Status(row.Status),
		UpdatedAt:   row.UpdatedAt,
	}
}
