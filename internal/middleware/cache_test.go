package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// routedContext builds a context the way Echo does for a parameterised
// route: the registered path keeps its :id placeholder while the request
// URL carries the concrete value.
func routedContext(t *testing.T, target string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/events/:id")
	return c
}

func TestCacheKeySeparatesPathParams(t *testing.T) {
	k1 := cacheKey("cache", routedContext(t, "/api/events/1"))
	k2 := cacheKey("cache", routedContext(t, "/api/events/2"))
	assert.NotEqual(t, k1, k2, "different ids on one route must not share a cache entry")
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	k1 := cacheKey("cache", routedContext(t, "/api/events/7"))
	k2 := cacheKey("cache", routedContext(t, "/api/events/7"))
	assert.Equal(t, k1, k2)
}

func TestCacheKeySeparatesQueryStrings(t *testing.T) {
	k1 := cacheKey("cache", routedContext(t, "/api/events?category=tech"))
	k2 := cacheKey("cache", routedContext(t, "/api/events?category=music"))
	assert.NotEqual(t, k1, k2)
}
