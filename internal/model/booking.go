package model

import "time"

// BookingStatus is the two-state lifecycle of a booking.  A booking is
// created CONFIRMED by the ledger's Reserve and may transition exactly
// once to CANCELLED via Release.  There is no way back.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// CanTransition reports whether a booking in status s may move to next.
// The only legal transition is CONFIRMED -> CANCELLED.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	return s == BookingConfirmed && next == BookingCancelled
}

// Booking ties a user to one seat of an event.  SeatNumber is a display
// label chosen by the user; it is not validated for uniqueness against
// other bookings of the same event, because capacity is tracked by the
// event counter and not by seat identity.
type Booking struct {
	ID         uint64        `json:"id"`
	UserID     uint64        `json:"user_id"`
	EventID    uint64        `json:"event_id"`
	SeatNumber string        `json:"seat_number"`
	Status     BookingStatus `json:"status"`
	BookedAt   time.Time     `json:"booked_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
