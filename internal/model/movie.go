package model

import "time"

// Movie is a catalog entry screened by one or more showtimes.
type Movie struct {
	ID          uint64    `json:"id"`           // movies.id
	Title       string    `json:"title"`        // movies.title
	Description string    `json:"description"`  // movies.description
	DurationMin uint32    `json:"duration_min"` // movies.duration_min
	Genre       string    `json:"genre"`        // movies.genre
	PosterURL   string    `json:"poster_url"`   // movies.poster_url
	CreatedAt   time.Time `json:"created_at"`   // movies.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // movies.updated_at
}
