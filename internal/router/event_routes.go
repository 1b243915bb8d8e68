package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kaksaab/club-event-ticketing/internal/config"
	"github.com/kaksaab/club-event-ticketing/internal/handler"
	"github.com/kaksaab/club-event-ticketing/internal/middleware"
	"github.com/kaksaab/club-event-ticketing/internal/model"
)

// RegisterEvents wires the event endpoints.  Reads are public and run
// behind the Redis response cache; writes require an authenticated admin.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
	pub := e.Group("/api/events")
	pub.Use(middleware.CacheGET(cacheCfg, rdb))
	pub.GET("", h.GetAllEvents)
	pub.GET("/:id", h.GetEvent)

	admin := e.Group("/api/events")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.CreateEvent)
	admin.PUT("/:id", h.UpdateEvent)
	admin.DELETE("/:id", h.DeleteEvent)
}
