package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kaksaab/club-event-ticketing/internal/model"
	"github.com/kaksaab/club-event-ticketing/internal/repository"
)

// ClubHandler exposes the club directory.  Listing and detail are
// public; creation and the my-club lookup require the admin role.
type ClubHandler struct {
	Clubs  *repository.ClubRepo
	Events *repository.EventRepo
}

// NewClubHandler constructs a ClubHandler.
func NewClubHandler(clubs *repository.ClubRepo, events *repository.EventRepo) *ClubHandler {
	if clubs == nil || events == nil {
		panic("nil dependency passed to NewClubHandler")
	}
	return &ClubHandler{Clubs: clubs, Events: events}
}

type createClubReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
}

// CreateClub handles POST /api/clubs (admin).  The authenticated admin
// becomes the club owner.
func (h *ClubHandler) CreateClub(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createClubReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	club, err := h.Clubs.Create(ctx, adminID, req.Name, req.Description, req.LogoURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create club"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"club": club})
}

// GetAllClubs handles GET /api/clubs, returning each club with its event
// count.
func (h *ClubHandler) GetAllClubs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	clubs, err := h.Clubs.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch clubs"})
	}
	return c.JSON(http.StatusOK, echo.Map{"clubs": clubs})
}

// clubDetail bundles a club with its upcoming events for the detail
// response.
type clubDetail struct {
	*model.Club
	Events []repository.EventDetail `json:"events"`
}

// GetClub handles GET /api/clubs/:id, returning the club together with
// its ACTIVE events.
func (h *ClubHandler) GetClub(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid club id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	club, err := h.Clubs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClubNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch club"})
	}
	events, err := h.Events.ListByClub(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch club"})
	}
	return c.JSON(http.StatusOK, echo.Map{"club": clubDetail{Club: club, Events: events}})
}

// GetMyClub handles GET /api/clubs/my-club (admin), resolving the club
// owned by the authenticated admin.
func (h *ClubHandler) GetMyClub(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	club, err := h.Clubs.GetByAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrClubNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "club not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch club"})
	}
	return c.JSON(http.StatusOK, echo.Map{"club": club})
}
