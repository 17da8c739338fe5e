package model

import "time"

// Seat describes a physical seat in an auditorium.  Seats are uniquely
// identified by their auditorium, row label and seat number and are
// immutable once created.
//
// Fields:
//  ID           – primary key identifier.
//  AuditoriumID – auditorium to which this seat belongs.
//  RowLabel     – letter or string designating the row.
//  SeatNumber   – number of the seat within the row.
//  CreatedAt    – creation timestamp.
type Seat struct {
	ID           uint64    `json:"id"`            // seats.id
	AuditoriumID uint64    `json:"auditorium_id"` // seats.auditorium_id
	RowLabel     string    `json:"row_label"`     // seats.row_label
	SeatNumber   uint32    `json:"seat_number"`   // seats.seat_number
	CreatedAt    time.Time `json:"created_at"`    // seats.created_at
}
