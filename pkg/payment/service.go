package payment

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultCurrency = "usd"

	bookingStatusConfirmed = "CONFIRMED"
)

// Service reconciles processor-side payment state with booking state.
type Service struct {
	store     Store
	processor Processor
}

// NewService wires a Service.
func NewService(store Store, processor Processor) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if processor == nil {
		return nil, fmt.Errorf("%w: processor dependency is nil", ErrInvalidServiceConfig)
	}
	return &Service{store: store, processor: processor}, nil
}

// CreateIntent returns a client secret for paying a booking. Retrying intent
// creation for a booking with a still-usable processor intent returns the
// existing secret unchanged instead of creating a duplicate intent.
func (service *Service) CreateIntent(ctx context.Context, bookingID string) (IntentHandle, error) {
	charge, err := service.store.GetBookingCharge(ctx, bookingID)
	if err != nil {
		return IntentHandle{}, err
	}
	if charge.Status == bookingStatusConfirmed {
		return IntentHandle{}, ErrBookingAlreadyConfirmed
	}

	currency := defaultCurrency
	existing, err := service.store.GetPayment(ctx, bookingID)
	if err != nil {
		return IntentHandle{}, err
	}
	if existing != nil && existing.Currency != "" {
		currency = existing.Currency
	}

	if existing != nil && existing.Status == StatusProcessing && existing.IntentID != "" {
		remote, retrieveErr := service.processor.RetrieveIntent(ctx, existing.IntentID)
		// A failed processor-side lookup falls through to creating a
		// fresh intent; only a definitive answer short-circuits.
		if retrieveErr == nil {
			if remote.Status == IntentStatusSucceeded {
				return IntentHandle{}, ErrPaymentAlreadySucceeded
			}
			if remote.Usable() {
				return IntentHandle{ClientSecret: remote.ClientSecret, IntentID: remote.IntentID}, nil
			}
		}
	}

	if err := service.store.UpsertPendingPayment(ctx, bookingID, charge.PriceCents, currency); err != nil {
		return IntentHandle{}, err
	}

	intent, err := service.processor.CreateIntent(ctx, IntentRequest{
		BookingID:   bookingID,
		AmountCents: charge.PriceCents,
		Currency:    currency,
	})
	if err != nil {
		return IntentHandle{}, fmt.Errorf("%w: %v", ErrProcessorUnavailable, err)
	}

	if err := service.store.MarkPaymentProcessing(ctx, bookingID, intent.IntentID); err != nil {
		return IntentHandle{}, err
	}

	return IntentHandle{ClientSecret: intent.ClientSecret, IntentID: intent.IntentID}, nil
}

// HandleEvent verifies and applies one processor webhook delivery. Deliveries
// are at-least-once: re-applying a terminal transition is a no-op, and an
// event whose booking cannot be resolved is acknowledged without effect so
// the processor stops retrying.
func (service *Service) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := service.processor.VerifyEvent(payload, signature)
	if err != nil {
		return err
	}

	// The audit record is best-effort; reconciliation still runs without it.
	_ = service.store.RecordWebhookEvent(ctx, event)

	switch event.Type {
	case EventPaymentSucceeded:
		bookingID, resolveErr := service.resolveBookingID(ctx, event)
		if resolveErr != nil {
			return resolveErr
		}
		if bookingID == "" {
			return nil
		}
		return service.store.ConfirmPaidBooking(ctx, bookingID)
	case EventPaymentFailed:
		bookingID, resolveErr := service.resolveBookingID(ctx, event)
		if resolveErr != nil {
			return resolveErr
		}
		if bookingID == "" {
			return nil
		}
		return service.store.CancelFailedBooking(ctx, bookingID)
	default:
		return nil
	}
}

// resolveBookingID prefers the booking id carried in the event metadata and
// falls back to a lookup by the processor's intent reference. An empty result
// means the event is unresolvable and must be acknowledged without effect.
func (service *Service) resolveBookingID(ctx context.Context, event Event) (string, error) {
	if strings.TrimSpace(event.BookingID) != "" {
		return event.BookingID, nil
	}
	if strings.TrimSpace(event.IntentID) == "" {
		return "", nil
	}
	bookingID, err := service.store.BookingIDByIntent(ctx, event.IntentID)
	if err != nil {
		return "", err
	}
	return bookingID, nil
}
