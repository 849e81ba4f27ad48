package payment

import (
	"context"
	"time"
)

// Status defines the payment lifecycle.
type Status string

const (
	StatusRequiresPayment Status = "REQUIRES_PAYMENT"
	StatusProcessing      Status = "PROCESSING"
	StatusSucceeded       Status = "SUCCEEDED"
	StatusFailed          Status = "FAILED"
)

// String returns the stored status value.
func (status Status) String() string {
	return string(status)
}

// Payment is the stored payment record, one per booking.
type Payment struct {
	BookingID   string
	AmountCents int64
	Currency    string
	IntentID    string
	Status      Status
	UpdatedAt   time.Time
}

// BookingCharge is the slice of a booking the bridge needs: its lifecycle
// status and the court price to charge.
type BookingCharge struct {
	BookingID  string
	Status     string
	PriceCents int64
}

// IntentHandle is what a client needs to complete a payment.
type IntentHandle struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"paymentIntentId"`
}

// Intent mirrors the processor-side payment intent.
type Intent struct {
	IntentID     string
	ClientSecret string
	Status       string
}

// Usable reports whether the remote intent can still collect this payment.
func (intent Intent) Usable() bool {
	return intent.Status != IntentStatusSucceeded && intent.Status != IntentStatusCanceled && intent.ClientSecret != ""
}

// Processor-side intent statuses the bridge distinguishes.
const (
	IntentStatusSucceeded = "succeeded"
	IntentStatusCanceled  = "canceled"
)

// Event kinds the bridge reacts to; all others are acknowledged untouched.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Event is a signature-verified processor notification.
type Event struct {
	EventID   string
	Type      string
	IntentID  string
	BookingID string
	Payload   []byte
}

// IntentRequest asks the processor for a fresh payment intent.
type IntentRequest struct {
	BookingID   string
	AmountCents int64
	Currency    string
}

// Processor is the external payment-processor contract.
type Processor interface {
	CreateIntent(ctx context.Context, request IntentRequest) (Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (Intent, error)
	// VerifyEvent checks the payload signature against the shared secret and
	// decodes the event. It fails with ErrWebhookUnconfigured when no secret
	// is set and ErrInvalidSignature when verification fails.
	VerifyEvent(payload []byte, signature string) (Event, error)
}

// Store is the persistence contract used by Service.
type Store interface {
	GetBookingCharge(ctx context.Context, bookingID string) (BookingCharge, error)
	GetPayment(ctx context.Context, bookingID string) (*Payment, error)
	UpsertPendingPayment(ctx context.Context, bookingID string, amountCents int64, currency string) error
	MarkPaymentProcessing(ctx context.Context, bookingID string, intentID string) error
	BookingIDByIntent(ctx context.Context, intentID string) (string, error)
	// ConfirmPaidBooking atomically marks the payment SUCCEEDED and the
	// booking CONFIRMED. Re-applying the transition is a no-op.
	ConfirmPaidBooking(ctx context.Context, bookingID string) error
	// CancelFailedBooking atomically marks the payment FAILED and, only if
	// the booking is still PENDING_PAYMENT, the booking CANCELLED.
	CancelFailedBooking(ctx context.Context, bookingID string) error
	RecordWebhookEvent(ctx context.Context, event Event) error
}
