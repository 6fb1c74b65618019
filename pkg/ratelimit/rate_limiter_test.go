package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventhub/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, cfg *Config) *RateLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateLimiter(client, cfg)
}

func TestIsAllowed_SlidingWindow(t *testing.T) {
	limiter := newLimiter(t, &Config{Enabled: true, WindowDuration: time.Minute, PaymentRequests: 2, DefaultRequests: 5})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypePayment)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		time.Sleep(time.Millisecond)
	}

	res, err := limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypePayment)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	// separate bucket per ip and per type
	res, err = limiter.IsAllowed(ctx, "10.0.0.2", RateLimitTypePayment)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestIsAllowed_Bypass(t *testing.T) {
	limiter := newLimiter(t, &Config{Enabled: true, WindowDuration: time.Minute, DefaultRequests: 0, WhitelistedIPs: []string{"127.0.0.9"}})
	ctx := context.Background()

	res, err := limiter.IsAllowed(ctx, "127.0.0.9", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.IsAllowed(ctx, "10.0.0.1", RateLimitTypeHealth)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestGetRateLimitType(t *testing.T) {
	assert.Equal(t, RateLimitTypeHealth, getRateLimitType("/health"))
	assert.Equal(t, RateLimitTypePayment, getRateLimitType("/api/v1/payments/verify"))
	assert.Equal(t, RateLimitTypePayment, getRateLimitType("/api/v1/bookings"))
	assert.Equal(t, RateLimitTypePayment, getRateLimitType("/api/v1/bookings/:id/cancel"))
	assert.Equal(t, RateLimitTypeAnalytics, getRateLimitType("/api/v1/admin/analytics"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType("/api/v1/admin/events"))
	assert.Equal(t, RateLimitTypePublic, getRateLimitType("/api/v1/events/:eventId"))
	assert.Equal(t, RateLimitTypeDefault, getRateLimitType("/api/v1/bookings/mine"))
}

func TestMiddleware_Rejects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newLimiter(t, &Config{Enabled: true, WindowDuration: time.Minute, AuthRequests: 1})

	r := gin.New()
	r.Use(Middleware(limiter, logger.Nop()))
	r.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
