package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/kaksaab/club-event-ticketing/internal/handler"    // handlers implementing the endpoint logic
	"github.com/kaksaab/club-event-ticketing/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems hit this endpoint to verify
	// that the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /api/auth,
// while the profile endpoint requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Registration, login and token exchange do not require an existing
	// session; each handler is responsible for issuing or rotating tokens.
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body and revokes it, so it does
	// not need the JWT middleware either.
	g.POST("/logout", a.Logout)

	// The profile endpoint is the only auth route behind the access token.
	me := e.Group("/api/auth")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}
