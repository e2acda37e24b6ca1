package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate signals an out-of-range or non-finite latitude/longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInvalidRadius signals a non-positive or too large search radius.
	ErrInvalidRadius = errors.New("invalid radius")
	// ErrInvalidPagination signals a page below 1 or a page size outside the allowed window.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrInvalidFilter signals a malformed non-geographic filter (rating, rate, sort).
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrStoreUnavailable signals that the vendor store failed or timed out.
	ErrStoreUnavailable = errors.New("vendor store unavailable")
)

// ValidationError wraps one of the validation sentinels with the offending field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Err.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a validation error for field that unwraps to sentinel.
func NewValidationError(sentinel error, field, reason string) error {
	return &ValidationError{Field: field, Reason: reason, Err: sentinel}
}
