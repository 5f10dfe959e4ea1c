/*
errors.go - Centralized error types for the time-accounting engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Validation errors - Malformed filter/date/direction input. Surfaced to
     the caller as a user-facing message, never fatal.
  2. Reconciliation errors - Odd or inconsistent clock counts. Blocks
     document generation but does not corrupt stored data.
  3. Configuration errors - Missing pay rate. A distinct, actionable
     condition ("generate a timesheet instead of an invoice").

NOT-FOUND SEMANTICS:
  An unknown user/tag/division in a query filter is NOT an error: the query
  engine resolves it to an empty result set so queries stay composable.
  ErrNotFound exists for direct lookups (by ID) only.

USAGE:
  if errors.Is(err, timeclock.ErrMismatchedClock) {
      // ask the user to submit a corrective timepunch
  }

SEE ALSO:
  - reconcile.go: Raises MismatchedClockError
  - calculator.go: Raises NoPayRateError
*/
package timeclock

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMismatchedClock is returned when a user's event log cannot be
	// reconciled into in/out pairs (odd counts, consecutive same-direction
	// events). The caller should prompt for a corrective timepunch.
	ErrMismatchedClock = errors.New("mismatched clock events")

	// ErrNoPayRate is returned when no pay rate covers a work interval.
	// Callers should offer timesheet generation instead of an invoice.
	ErrNoPayRate = errors.New("no pay rate configured")

	// ErrInvalidInput is returned for malformed filter/date/direction input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned by direct ID lookups for missing records.
	// Query filters never raise it; they resolve to empty results instead.
	ErrNotFound = errors.New("not found")

	// ErrSelfSupervision is returned when a user would supervise themself.
	ErrSelfSupervision = errors.New("user cannot supervise themself")

	// ErrDuplicateEmail is returned when creating a user with an email
	// that is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MismatchedClockError reports an event log that cannot be paired.
type MismatchedClockError struct {
	UserID UserID
	Count  int       // number of events in the queried range
	At     time.Time // time of the offending event, zero if odd-count only
	Detail string
}

func (e *MismatchedClockError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mismatched clock events for user %s: %s", e.UserID, e.Detail)
	}
	return fmt.Sprintf("mismatched clock events for user %s: %d events in range", e.UserID, e.Count)
}

func (e *MismatchedClockError) Unwrap() error { return ErrMismatchedClock }

// NoPayRateError reports a missing pay rate configuration.
type NoPayRateError struct {
	Email string
	Date  time.Time
}

func (e *NoPayRateError) Error() string {
	return fmt.Sprintf("no pay rate for %s at or before %s", e.Email, e.Date.Format("2006-01-02"))
}

func (e *NoPayRateError) Unwrap() error { return ErrNoPayRate }

// ValidationError reports malformed user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input or
// a correctable data condition, as opposed to a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMismatchedClock) ||
		errors.Is(err, ErrNoPayRate) ||
		errors.Is(err, ErrSelfSupervision) ||
		errors.Is(err, ErrDuplicateEmail)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
