package model

import "time"

// Event status values.  Only ACTIVE events are bookable and listed
// publicly; CANCELLED and COMPLETED are terminal.
const (
	EventActive    = "ACTIVE"
	EventCancelled = "CANCELLED"
	EventCompleted = "COMPLETED"
)

// Event is a club event with finite seating.  TotalSeats is the capacity
// ceiling set at creation (or admin resize); AvailableSeats is the live
// counter maintained exclusively by the seat ledger.  The invariant
// 0 <= AvailableSeats <= TotalSeats holds at all times, and
// AvailableSeats = TotalSeats - count(CONFIRMED bookings).
//
// Date holds the calendar date of the event; Time is the free-form
// human display time ("18:30") kept separate to match the public API.
type Event struct {
	ID             uint64    `json:"id"`
	ClubID         uint64    `json:"club_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PosterURL      string    `json:"poster_url"`
	Venue          string    `json:"venue"`
	Date           time.Time `json:"date"`
	Time           string    `json:"time"`
	Category       string    `json:"category"`
	PriceCents     uint32    `json:"price_cents"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ResizeSeats computes the new seat counters when an admin changes the
// capacity of an event.  Booked seats are derived from the current
// counters; existing bookings are never touched, so shrinking below the
// booked count yields zero available seats rather than a negative value.
func ResizeSeats(oldTotal, oldAvailable, newTotal uint32) (total, available uint32) {
	booked := oldTotal - oldAvailable
	if newTotal > booked {
		return newTotal, newTotal - booked
	}
	return newTotal, 0
}
