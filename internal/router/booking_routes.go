package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kaksaab/club-event-ticketing/internal/handler"
	"github.com/kaksaab/club-event-ticketing/internal/middleware"
	"github.com/kaksaab/club-event-ticketing/internal/model"
)

// RegisterBookings wires the booking endpoints.  Every route requires a
// valid access token; the per-event listing is additionally restricted to
// admins because it exposes attendee details.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/api/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("", h.CreateBooking)
	g.GET("/user", h.GetUserBookings)
	g.PUT("/:id/cancel", h.CancelBooking)
	g.GET("/event/:eventId", h.GetEventBookings, middleware.RequireRole(model.RoleAdmin))
}
