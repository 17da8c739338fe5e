package model

import (
	"errors"
	"time"
)

// Booking statuses.  A booking starts out pending and moves to exactly one
// of the two terminal states.  There is no transition out of paid or
// cancelled.
const (
	BookingStatusPending   = "pending"
	BookingStatusPaid      = "paid"
	BookingStatusCancelled = "cancelled"
)

// Payment methods accepted at booking time.
const (
	PaymentMethodKHQR = "khqr"
	PaymentMethodABA  = "aba"
)

// ErrAlreadyFinalized is returned when a status transition is attempted on
// a booking that already reached a terminal state.  Callers treat it as an
// idempotent no-op (duplicate payment confirmations) or as a rejected
// action (cancelling a paid booking), never as corruption.
var ErrAlreadyFinalized = errors.New("booking already finalized")

// Booking records a customer's claim on a set of seats for a showtime.
// The seat set is fixed when the booking is created and never mutated
// afterwards.  Once paid, the booking is immutable except for audit
// metadata.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – customer who owns the booking.
//  ShowtimeID       – showtime being booked.
//  Status           – pending, paid or cancelled.
//  TotalPriceCents  – unit price × number of seats, in cents.
//  PaymentMethod    – khqr or aba (nullable until checkout starts).
//  PaymentReference – opaque charge reference issued by the gateway.
//  PaidAt           – set when the booking transitions to paid.
//  SeatIDs          – seats claimed by this booking.
type Booking struct {
	ID               uint64     // bookings.id
	UserID           uint64     // bookings.user_id
	ShowtimeID       uint64     // bookings.showtime_id
	Status           string     // bookings.status
	TotalPriceCents  uint32     // bookings.total_price_cents
	PaymentMethod    *string    // bookings.payment_method (nullable)
	PaymentReference *string    // bookings.payment_reference (nullable)
	PaidAt           *time.Time // bookings.paid_at (nullable)
	CreatedAt        time.Time  // bookings.created_at
	UpdatedAt        time.Time  // bookings.updated_at
	SeatIDs          []uint64   // booking_seats.seat_id for this booking
}

// Terminal reports whether the booking reached a final state.
func (b *Booking) Terminal() bool {
	return b.Status == BookingStatusPaid || b.Status == BookingStatusCancelled
}

// MarkPaid transitions a pending booking to paid, recording the provider
// reference and the payment timestamp.  Attempting the transition on a
// terminal booking returns ErrAlreadyFinalized and leaves the booking
// untouched.
func (b *Booking) MarkPaid(providerRef string, paidAt time.Time) error {
	if b.Terminal() {
		return ErrAlreadyFinalized
	}
	ref := providerRef
	paid := paidAt.UTC()
	b.Status = BookingStatusPaid
	b.PaymentReference = &ref
	b.PaidAt = &paid
	return nil
}

// Cancel transitions a pending booking to cancelled.  Cancelling a booking
// that is already paid or cancelled returns ErrAlreadyFinalized.
func (b *Booking) Cancel() error {
	if b.Terminal() {
		return ErrAlreadyFinalized
	}
	b.Status = BookingStatusCancelled
	return nil
}

// ValidPaymentMethod reports whether the given method is one the system
// accepts.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodKHQR || m == PaymentMethodABA
}
