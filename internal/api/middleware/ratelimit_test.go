package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedEcho(rps float64, burst int) *echo.Echo {
	e := echo.New()
	e.Use(RateLimiterWithConfig(rps, burst, nil))
	e.GET("/api/emails", okHandler)
	e.GET("/track/:id", okHandler)
	e.GET("/health", okHandler)
	return e
}

func doGet(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	e := newRateLimitedEcho(1, 2)

	assert.Equal(t, http.StatusOK, doGet(e, "/api/emails").Code)
	assert.Equal(t, http.StatusOK, doGet(e, "/api/emails").Code)
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	e := newRateLimitedEcho(0.1, 1)

	assert.Equal(t, http.StatusOK, doGet(e, "/api/emails").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(e, "/api/emails").Code)
}

func TestRateLimiter_BeaconRouteExempt(t *testing.T) {
	e := newRateLimitedEcho(0.1, 1)

	// Exhaust the API budget
	doGet(e, "/api/emails")
	assert.Equal(t, http.StatusTooManyRequests, doGet(e, "/api/emails").Code)

	// Beacon fetches keep flowing regardless
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doGet(e, "/track/abc.png").Code)
	}
}

func TestRateLimiter_HealthExempt(t *testing.T) {
	e := newRateLimitedEcho(0.1, 1)

	doGet(e, "/api/emails")
	assert.Equal(t, http.StatusOK, doGet(e, "/health").Code)
}

func TestIPRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)

	assert.True(t, limiter.GetLimiter("10.0.0.1").Allow())
	assert.False(t, limiter.GetLimiter("10.0.0.1").Allow())
	assert.True(t, limiter.GetLimiter("10.0.0.2").Allow())
}
