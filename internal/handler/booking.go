package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kaksaab/club-event-ticketing/internal/ledger"
	"github.com/kaksaab/club-event-ticketing/internal/model"
	"github.com/kaksaab/club-event-ticketing/internal/queue"
	"github.com/kaksaab/club-event-ticketing/internal/repository"
)

// BookingHandler translates the booking HTTP surface into seat ledger
// calls.  All seat accounting happens inside the ledger's transactions;
// the handler only validates input, maps errors to status codes and
// publishes lifecycle events after commit.
type BookingHandler struct {
	Ledger   *ledger.Ledger
	Bookings *repository.BookingRepo
}

// NewBookingHandler constructs a BookingHandler.  Both dependencies must
// be non-nil.
func NewBookingHandler(l *ledger.Ledger, bookings *repository.BookingRepo) *BookingHandler {
	if l == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: l, Bookings: bookings}
}

type createBookingReq struct {
	EventID    uint64 `json:"event_id"`
	SeatNumber string `json:"seat_number"`
}

// CreateBooking handles POST /api/bookings.  It reserves one seat on the
// event for the authenticated user and returns the confirmed booking.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	req.SeatNumber = strings.TrimSpace(req.SeatNumber)
	if len(req.SeatNumber) > 32 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_number too long"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Ledger.Reserve(ctx, req.EventID, userID, req.SeatNumber)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrNoSeats):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
		}
	}

	publishBookingEvent(queue.TypeBookingConfirmed, booking)

	return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// GetUserBookings handles GET /api/bookings/user.  Bookings are returned
// newest first with their event and club details.
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// CancelBooking handles PUT /api/bookings/:id/cancel.  Only the booking
// owner can cancel; a booking that does not exist and one owned by
// another user both answer 404 so existence is never leaked.  Cancelling
// twice answers 409.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Ledger.Release(ctx, bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
		}
	}

	publishBookingEvent(queue.TypeBookingCancelled, booking)

	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled successfully"})
}

// GetEventBookings handles GET /api/bookings/event/:eventId (admin).
func (h *BookingHandler) GetEventBookings(c echo.Context) error {
	eventID, err := pathID(c, "eventId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// publishBookingEvent pushes a lifecycle event to the broker without
// blocking the response; the booking has already committed.
func publishBookingEvent(eventType string, b *model.Booking) {
	ev := queue.BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		UserID:     b.UserID,
		EventID:    b.EventID,
		SeatNumber: b.SeatNumber,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue.PublishBookingEvent(ctx, ev)
	}()
}
