package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from BookingStatus
		to   BookingStatus
		ok   bool
	}{
		{name: "confirmed to cancelled", from: BookingConfirmed, to: BookingCancelled, ok: true},
		{name: "cancelled to confirmed", from: BookingCancelled, to: BookingConfirmed, ok: false},
		{name: "cancelled to cancelled", from: BookingCancelled, to: BookingCancelled, ok: false},
		{name: "confirmed to confirmed", from: BookingConfirmed, to: BookingConfirmed, ok: false},
		{name: "unknown source", from: BookingStatus("PENDING"), to: BookingCancelled, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}
