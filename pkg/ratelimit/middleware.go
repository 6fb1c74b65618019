package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"eventhub/internal/shared/utils/response"
	"eventhub/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client IP, with the bucket chosen from the matched route
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// Redis trouble should not take the API down with it
			log.ErrorWithContext(c.Request.Context(), "Rate limit check failed", err, nil)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/analytics"):
		return RateLimitTypeAnalytics

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	// money and inventory paths
	case strings.Contains(path, "/payments/"),
		strings.HasSuffix(path, "/bookings"),
		strings.Contains(path, "/cancel"):
		return RateLimitTypePayment

	case strings.Contains(path, "/events"),
		strings.Contains(path, "/comments"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}
