// Package repository implements data access against MySQL.  This file
// defines sentinel errors shared across repositories so that the service
// and handler layers can distinguish failure scenarios without inspecting
// SQL details.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else, e.g. reading another customer's
// booking.  Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of
// conflicting existing state, such as deleting a showtime that still has
// non-cancelled bookings.  Handlers translate it into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
