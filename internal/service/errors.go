// Package service implements the booking domain logic: seat locking,
// reservation, and payment reconciliation.  Business-rule failures are
// typed values defined here; handlers map them onto HTTP responses, and
// anything else is an infrastructure error that must not leak detail to
// clients.
package service

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed input before any transaction starts.
// The caller can always recover by correcting the request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError reports a lost seat race: one or more requested seats are
// locked by another holder or claimed by a non-cancelled booking.  No
// partial state is left behind; the caller should re-select seats.
type ConflictError struct {
	SeatIDs []uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

// InvalidSeatError reports seats that do not belong to the showtime's
// auditorium.  This is a caller bug, not a race.
type InvalidSeatError struct {
	SeatIDs []uint64
}

func (e *InvalidSeatError) Error() string {
	return fmt.Sprintf("seats not in showtime auditorium: %v", e.SeatIDs)
}

// ErrAlreadyCancelled rejects a payment confirmation for a booking that
// was cancelled before the money arrived.  The seats may already belong
// to someone else, so the payment cannot be honored automatically; the
// case is surfaced for manual reconciliation.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrAmountMismatch rejects a payment confirmation whose observed amount
// differs from the booking total by more than the tolerance.  The booking
// stays pending; operations should be alerted.
var ErrAmountMismatch = errors.New("payment amount mismatch")

// ErrUnavailable is returned when transient store contention persisted
// through every retry.  The request can be repeated safely.
var ErrUnavailable = errors.New("service temporarily unavailable")
