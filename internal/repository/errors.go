// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Note that
// ErrBookingNotFound deliberately covers both "no such booking" and
// "booking owned by someone else": the single query that loads a booking
// filters by id and owner at the same time, so a caller can never learn
// whether a foreign booking exists.
package repository

import "errors"

// ErrEventNotFound is returned when an event id does not resolve to a row.
var ErrEventNotFound = errors.New("event not found")

// ErrClubNotFound is returned when a club id does not resolve to a row,
// or when an admin has no club yet.
var ErrClubNotFound = errors.New("club not found")

// ErrBookingNotFound is returned when a booking does not exist or does
// not belong to the requesting user. Handlers translate this into an
// HTTP 404 response in both cases.
var ErrBookingNotFound = errors.New("booking not found")

// ErrNoSeats is returned by the seat ledger when an event has no
// available seats left (or is no longer bookable). Handlers translate
// this into an HTTP 400 response.
var ErrNoSeats = errors.New("no seats available")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as cancelling a booking that is already
// cancelled. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned on registration with a taken email.
var ErrEmailExists = errors.New("email already exists")
