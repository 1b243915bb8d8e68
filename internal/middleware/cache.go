package middleware

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kaksaab/club-event-ticketing/internal/config"
)

// bodyCapture mirrors the response body into a buffer while forwarding
// it to the client, so a successful response can be stored afterwards.
// Responses larger than limit are forwarded but not captured.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int
	limit  int
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.size += len(b)
	if w.size <= w.limit {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// CacheGET returns a middleware that serves public GET responses from
// Redis for a short TTL.  It is applied only to the public event and
// club listings, which are read far more often than they change; writes
// are not invalidated eagerly, staleness is bounded by the TTL.  With a
// nil Redis client or disabled config the middleware is a no-op.
func CacheGET(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}

			rec := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				return err
			}
			// Only complete 200 JSON responses are worth keeping.
			if rec.status == http.StatusOK && rec.size <= cfg.MaxBodyBytes && rec.buf.Len() > 0 {
				_ = rdb.Set(ctx, key, rec.buf.Bytes(), cfg.TTL).Err()
			}
			return nil
		}
	}
}

// cacheKey hashes the request path and query into a fixed-size key under
// the configured prefix.  The concrete URL path is used rather than the
// registered route, so /api/events/1 and /api/events/2 never share an
// entry.
func cacheKey(prefix string, c echo.Context) string {
	u := c.Request().URL
	sum := sha1.Sum([]byte(u.Path + "?" + u.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}
