package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the service matches exactly one of
// these with errors.Is.
var (
	// ErrValidation is returned when input is malformed or missing.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a state transition is rejected.
	ErrConflict = errors.New("conflict")

	// ErrStorage is returned when the store is unreachable or a write was not committed.
	ErrStorage = errors.New("storage unavailable")
)

var (
	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = fmt.Errorf("%w: invalid ride id", ErrValidation)

	// ErrInvalidPaymentAmount is returned when payment amount is missing or not positive.
	ErrInvalidPaymentAmount = fmt.Errorf("%w: invalid payment amount", ErrValidation)

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = fmt.Errorf("%w: invalid payment id", ErrValidation)

	// ErrPaymentNotFound is returned when no payment matches the given ID.
	ErrPaymentNotFound = fmt.Errorf("%w: payment not found", ErrNotFound)

	// ErrAlreadyCaptured is returned when capturing a payment that is already CAPTURED.
	ErrAlreadyCaptured = fmt.Errorf("%w: already captured", ErrConflict)
)

// ValidationError describes every invalid field of a request.
type ValidationError struct {
	// Fields maps the JSON field name to a human readable message.
	Fields map[string]string
	// Err is the specific sentinel of the first invalid field.
	Err error
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e.Fields[name])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// storageError marks err as a storage failure while keeping the cause reachable.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
