// Package errs defines the error kinds shared by every aggregate. Aggregate
// packages wrap these so callers can match either the precise sentinel
// (collateral.ErrNotFound) or the kind (errs.ErrNotFound) with errors.Is.
package errs

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrStateConflict = errors.New("state conflict")
	// ErrUnavailable marks a store or provider failure; callers may retry with backoff.
	ErrUnavailable = errors.New("collaborator unavailable")
)

// Validation builds a validation error carrying a human readable reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflict builds a state-conflict error carrying a human readable reason.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateConflict, fmt.Sprintf(format, args...))
}

// Unavailable wraps a collaborator failure. Known kinds and nil pass through.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// IsKnown reports whether err already carries one of the kinds above.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStateConflict) ||
		errors.Is(err, ErrUnavailable)
}

// FromContext converts a cancelled or expired context into a retryable error.
func FromContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// IsRetryable reports whether the caller may retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
