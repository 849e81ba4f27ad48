package payment

import "errors"

// Domain-level error values returned by the payment service.
var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrBookingAlreadyConfirmed = errors.New("booking already confirmed")
	ErrPaymentAlreadySucceeded = errors.New("payment already succeeded")
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrWebhookUnconfigured     = errors.New("webhook secret not configured")
	ErrProcessorUnavailable    = errors.New("payment processor unavailable")
	ErrInvalidServiceConfig    = errors.New("invalid payment service config")
)
