package model

import "time"

// Showtime schedules a movie in an auditorium at a start time with a
// single unit price.  Its candidate seat set is inherited from the
// auditorium; its bookings claim subsets of those seats.
//
// Fields:
//  ID           – primary key identifier.
//  MovieID      – movie being screened.
//  AuditoriumID – auditorium hosting the screening.
//  StartsAt     – when the screening begins.
//  PriceCents   – price per seat in cents.
type Showtime struct {
	ID           uint64    `json:"id"`            // showtimes.id
	MovieID      uint64    `json:"movie_id"`      // showtimes.movie_id
	AuditoriumID uint64    `json:"auditorium_id"` // showtimes.auditorium_id
	StartsAt     time.Time `json:"starts_at"`     // showtimes.starts_at
	PriceCents   uint32    `json:"price_cents"`   // showtimes.price_cents
	CreatedAt    time.Time `json:"created_at"`    // showtimes.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // showtimes.updated_at
}
