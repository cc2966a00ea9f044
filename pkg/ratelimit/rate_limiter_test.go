package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) *RateLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, cfg)
}

func testConfig() *Config {
	return &Config{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		DefaultRequests:         5,
		PublicRequests:          5,
		BookingRequests:         5,
		BookingCriticalRequests: 2,
		AdminRequests:           5,
		HealthRequests:          5,
	}
}

func TestIsAllowed_EnforcesLimitWithinWindow(t *testing.T) {
	limiter := newTestLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeBookingCritical)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d", i+1)
	}

	result, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)

	// Other clients and other classes have their own windows
	result, err = limiter.IsAllowed(ctx, "10.0.0.2", RateLimitTypeBookingCritical)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypePublic)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestIsAllowed_WhitelistAndDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.WhitelistedIPs = []string{"127.0.0.1"}
	limiter := newTestLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := limiter.IsAllowed(ctx, "127.0.0.1", RateLimitTypeBookingCritical)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	cfg = testConfig()
	cfg.Enabled = false
	limiter = newTestLimiter(t, cfg)
	for i := 0; i < 10; i++ {
		result, err := limiter.IsAllowed(ctx, "10.0.0.9", RateLimitTypeBookingCritical)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestGetRateLimitType(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodPost, "/api/v1/admin/shows", RateLimitTypeAdmin},
		{http.MethodPost, "/api/v1/bookings", RateLimitTypeBookingCritical},
		{http.MethodPost, "/api/v1/bookings/:id/confirm", RateLimitTypeBookingCritical},
		{http.MethodDelete, "/api/v1/shows/:id/holds", RateLimitTypeBookingCritical},
		{http.MethodGet, "/api/v1/bookings/:id", RateLimitTypeBooking},
		{http.MethodGet, "/api/v1/shows/:id/seats", RateLimitTypePublic},
		{http.MethodGet, "", RateLimitTypeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, getRateLimitType(tt.method, tt.path))
		})
	}
}

func TestMiddleware_Returns429WhenExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newTestLimiter(t, testConfig())

	engine := gin.New()
	engine.Use(Middleware(limiter))
	engine.POST("/api/v1/bookings", func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}
