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
	"github.com/kaksaab/club-event-ticketing/internal/repository"
)

// EventHandler exposes the event CRUD surface.  Reads are public;
// writes run behind the admin role middleware.  Capacity changes go
// through the seat ledger so the availability counter stays consistent
// with existing bookings.
type EventHandler struct {
	Events *repository.EventRepo
	Ledger *ledger.Ledger
}

// NewEventHandler constructs an EventHandler.  Both dependencies must be
// non-nil.
func NewEventHandler(events *repository.EventRepo, l *ledger.Ledger) *EventHandler {
	if events == nil || l == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Ledger: l}
}

// parseEventDate accepts a date-only value or a full RFC3339 timestamp.
func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// GetAllEvents handles GET /api/events with optional category, search
// and date (lower bound) query filters.
func (h *EventHandler) GetAllEvents(c echo.Context) error {
	filter := repository.EventFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
	}
	if raw := strings.TrimSpace(c.QueryParam("date")); raw != "" {
		t, err := parseEventDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date filter"})
		}
		filter.DateFrom = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.Events.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch events"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// GetEvent handles GET /api/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": event})
}

type createEventReq struct {
	ClubID      uint64 `json:"club_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PosterURL   string `json:"poster_url"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Category    string `json:"category"`
	PriceCents  uint32 `json:"price_cents"`
	TotalSeats  uint32 `json:"total_seats"`
}

// CreateEvent handles POST /api/events (admin).  The event starts ACTIVE
// with available_seats equal to total_seats.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.ClubID == 0 || req.Title == "" || strings.TrimSpace(req.Date) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "club_id, title and date are required"})
	}
	date, err := parseEventDate(strings.TrimSpace(req.Date))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	event, err := h.Events.Create(ctx, repository.NewEvent{
		ClubID:      req.ClubID,
		Title:       req.Title,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		Venue:       req.Venue,
		Date:        date,
		Time:        req.Time,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		TotalSeats:  req.TotalSeats,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"event": event})
}

type updateEventReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PosterURL   *string `json:"poster_url"`
	Venue       *string `json:"venue"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Category    *string `json:"category"`
	PriceCents  *uint32 `json:"price_cents"`
	TotalSeats  *uint32 `json:"total_seats"`
	Status      *string `json:"status"`
}

// UpdateEvent handles PUT /api/events/:id (admin).  Absent fields leave
// their columns untouched.  A total_seats change is a ledger resize:
// booked seats are preserved and available_seats is recomputed inside
// the same transaction as the rest of the update.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	patch := repository.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		Venue:       req.Venue,
		Time:        req.Time,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
	}
	if req.Date != nil {
		date, err := parseEventDate(strings.TrimSpace(*req.Date))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		patch.Date = &date
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if status != model.EventActive && status != model.EventCancelled && status != model.EventCompleted {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		patch.Status = &status
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if req.TotalSeats != nil {
		if err := h.Ledger.ResizeTx(ctx, tx, id, *req.TotalSeats); err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
		}
	}
	if err := h.Events.UpdateTx(ctx, tx, id, patch); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
	}
	// Updates with neither a patch nor a resize still need an existence
	// check so a bogus id answers 404.
	if req.TotalSeats == nil {
		ok, err := h.Events.ExistsTx(ctx, tx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
		}
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": event})
}

// DeleteEvent handles DELETE /api/events/:id (admin).  Bookings cascade
// with the event.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted successfully"})
}
