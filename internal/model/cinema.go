package model

import "time"

// Cinema represents a theatre venue.  A cinema contains multiple
// auditoriums.  This struct corresponds to a row in the `cinemas` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – name of the cinema.
//  City      – city where the cinema is located.
//  Address   – street address.
//  CreatedAt – timestamp when the cinema was created.
//  UpdatedAt – timestamp of last update.
type Cinema struct {
	ID        uint64    `json:"id"`         // cinemas.id
	Name      string    `json:"name"`       // cinemas.name
	City      string    `json:"city"`       // cinemas.city
	Address   string    `json:"address"`    // cinemas.address
	CreatedAt time.Time `json:"created_at"` // cinemas.created_at
	UpdatedAt time.Time `json:"updated_at"` // cinemas.updated_at
}

// Auditorium is a screening room inside a cinema.  Physical seats belong
// to an auditorium; showtimes reference it to inherit the seat set.
//
// Fields:
//  ID        – primary key identifier.
//  CinemaID  – cinema to which this auditorium belongs.
//  Name      – room name within the cinema.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Auditorium struct {
	ID        uint64    `json:"id"`         // auditoriums.id
	CinemaID  uint64    `json:"cinema_id"`  // auditoriums.cinema_id
	Name      string    `json:"name"`       // auditoriums.name
	CreatedAt time.Time `json:"created_at"` // auditoriums.created_at
	UpdatedAt time.Time `json:"updated_at"` // auditoriums.updated_at
}
