package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"playaway/internal/ratelimit"
)

// RateLimit throttles a route group against one bucket, keyed by
// client IP. A broken counter store fails open: throttling is a guard,
// not a correctness mechanism.
func RateLimit(limiter *ratelimit.Limiter, bucket ratelimit.Bucket, log zerolog.Logger) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		result, err := limiter.Check(c.Request.Context(), bucket, c.ClientIP())
		if err != nil {
			log.Warn().Err(err).Str("bucket", string(bucket)).Msg("rate limit check failed")
			c.Next()
			return
		}

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
			return
		}

		c.Next()
	}
}
