package ratelimit

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"eventhub/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

type RateLimitType string

const (
	RateLimitTypeDefault   RateLimitType = "default"
	RateLimitTypePublic    RateLimitType = "public"
	RateLimitTypeAuth      RateLimitType = "auth"
	RateLimitTypePayment   RateLimitType = "payment"
	RateLimitTypeAdmin     RateLimitType = "admin"
	RateLimitTypeAnalytics RateLimitType = "analytics"
	RateLimitTypeHealth    RateLimitType = "health"
)

type Config struct {
	Enabled           bool          `json:"enabled"`
	WindowDuration    time.Duration `json:"window_duration"`
	DefaultRequests   int           `json:"default_requests"`
	PublicRequests    int           `json:"public_requests"`
	AuthRequests      int           `json:"auth_requests"`
	PaymentRequests   int           `json:"payment_requests"`
	AdminRequests     int           `json:"admin_requests"`
	AnalyticsRequests int           `json:"analytics_requests"`
	WhitelistedIPs    []string      `json:"whitelisted_ips"`
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client redis.UniversalClient
	config *Config
}

func NewRateLimiter(client redis.UniversalClient, config *Config) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// sliding window over a sorted set; members are request timestamps in microseconds
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current_count = redis.call('ZCARD', key)
	if current_count >= limit then
		redis.call('PEXPIRE', key, window_ms)
		return {current_count + 1, 0}
	end

	redis.call('ZADD', key, now, now)
	redis.call('PEXPIRE', key, window_ms)

	return {current_count + 1, limit - current_count - 1}
`)

// IsAllowed checks if request is allowed
func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)

	if !r.config.Enabled || limitType == RateLimitTypeHealth || r.isWhitelisted(clientIP) {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := constants.CACHE_KEY_RATE_LIMIT + string(limitType) + ":" + clientIP
	return r.checkLimit(ctx, key, limit)
}

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-r.config.WindowDuration)

	result, err := slidingWindow.Run(ctx, r.client, []string{key},
		windowStart.UnixMicro(),
		now.UnixMicro(),
		limit,
		r.config.WindowDuration.Milliseconds(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	currentCount, _ := strconv.Atoi(fmt.Sprint(values[0]))
	remaining, _ := strconv.Atoi(fmt.Sprint(values[1]))

	return &Result{
		Allowed:   currentCount <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(r.config.WindowDuration).Unix(),
	}, nil
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypePublic:
		return r.config.PublicRequests
	case RateLimitTypeAuth:
		return r.config.AuthRequests
	case RateLimitTypePayment:
		return r.config.PaymentRequests
	case RateLimitTypeAdmin:
		return r.config.AdminRequests
	case RateLimitTypeAnalytics:
		return r.config.AnalyticsRequests
	default:
		return r.config.DefaultRequests
	}
}

func (r *RateLimiter) isWhitelisted(ip string) bool {
	return slices.Contains(r.config.WhitelistedIPs, ip)
}
