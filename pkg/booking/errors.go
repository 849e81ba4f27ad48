package booking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the booking service.
var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidTimeRange     = errors.New("invalid time range")
	ErrSlotLocked           = errors.New("time slot temporarily locked")
	ErrSlotTaken            = errors.New("time slot already booked")
	ErrClubNotFound         = errors.New("club not found")
	ErrCourtNotFound        = errors.New("court not found")
	ErrInvalidClubID        = errors.New("invalid club id")
	ErrInvalidCourtID       = errors.New("invalid court id")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidBookingID     = errors.New("invalid booking id")
	ErrInvalidClubName      = errors.New("invalid club name")
	ErrInvalidCourtName     = errors.New("invalid court name")
	ErrInvalidPriceCents    = errors.New("invalid price cents")
	ErrInvalidTimezone      = errors.New("invalid timezone")
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
