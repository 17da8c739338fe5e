// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair for the booking.paid queue.
package queue

// BookingPaidEvent is published after a payment settles and the booking
// transitions to paid. It carries enough context for downstream consumers
// to log, notify, or feed analytics without querying the primary database.
type BookingPaidEvent struct {
	BookingID        uint64   `json:"booking_id"`
	UserID           uint64   `json:"user_id"`
	ShowtimeID       uint64   `json:"showtime_id"`
	SeatIDs          []uint64 `json:"seat_ids"`
	TotalPriceCents  uint32   `json:"total_price_cents"`
	PaymentMethod    string   `json:"payment_method"`
	PaymentReference string   `json:"payment_reference"`
	PaidAt           string   `json:"paid_at"`
}
