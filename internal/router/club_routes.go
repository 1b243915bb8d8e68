package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kaksaab/club-event-ticketing/internal/handler"
	"github.com/kaksaab/club-event-ticketing/internal/middleware"
	"github.com/kaksaab/club-event-ticketing/internal/model"
)

// RegisterClubs wires the club directory.  The listing and detail pages
// are public; club creation and the my-club lookup are admin operations.
// The my-club route must be registered before the parameterised detail
// route so Echo does not treat "my-club" as an id.
func RegisterClubs(e *echo.Echo, h *handler.ClubHandler, jwtSecret string) {
	admin := e.Group("/api/clubs")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.CreateClub)
	admin.GET("/my-club", h.GetMyClub)

	e.GET("/api/clubs", h.GetAllClubs)
	e.GET("/api/clubs/:id", h.GetClub)
}
