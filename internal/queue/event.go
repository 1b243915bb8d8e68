// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking lifecycle event types carried in BookingEvent.Type.
const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is published after a reservation or cancellation commits.
// It contains enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingEvent struct {
	Type       string `json:"type"`
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	EventID    uint64 `json:"event_id"`
	SeatNumber string `json:"seat_number"`
	OccurredAt string `json:"occurred_at"`
}
