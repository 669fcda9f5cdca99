package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/menucraft/api/internal/config"
	"github.com/menucraft/api/pkg/logger"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{
		RequestsPerSec:  100,
		Burst:           5,
		CleanupInterval: time.Minute,
	}, logger.NewNop())
	defer rl.Stop()

	mw := rl.Middleware()(okHandler())

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	mw.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimiterBlocksBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{
		RequestsPerSec:  0.001,
		Burst:           2,
		CleanupInterval: time.Minute,
	}, logger.NewNop())
	defer rl.Stop()

	mw := rl.Middleware()(okHandler())

	var last *httptest.ResponseRecorder
	for range 3 {
		last = httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		mw.ServeHTTP(last, r)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
}

func TestRateLimiterTracksIPsSeparately(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{
		RequestsPerSec:  0.001,
		Burst:           1,
		CleanupInterval: time.Minute,
	}, logger.NewNop())
	defer rl.Stop()

	mw := rl.Middleware()(okHandler())

	first := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	r1.RemoteAddr = "10.0.0.3:1234"
	mw.ServeHTTP(first, r1)

	second := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	r2.RemoteAddr = "10.0.0.4:1234"
	mw.ServeHTTP(second, r2)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "203.0.113.7", getClientIP(r))
}

func TestGetClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.9:5555"

	assert.Equal(t, "192.0.2.9", getClientIP(r))
}
