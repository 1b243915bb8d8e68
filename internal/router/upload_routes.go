package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kaksaab/club-event-ticketing/internal/handler"
	"github.com/kaksaab/club-event-ticketing/internal/middleware"
)

// RegisterUpload wires the image upload endpoint and serves previously
// stored files.  Uploading requires authentication; serving is public so
// posters and logos render for guests.
func RegisterUpload(e *echo.Echo, h *handler.UploadHandler, jwtSecret, baseURL, dir string) {
	g := e.Group("/api/upload")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/image", h.UploadImage)

	e.Static(baseURL, dir)
}
