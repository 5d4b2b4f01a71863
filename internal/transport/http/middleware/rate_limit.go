package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitStore defines the persistence operations required by the limiter.
type RateLimitStore interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error)
}

// RateLimitRule configures a sliding-window limit keyed by client IP.
type RateLimitRule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimit returns a Gin middleware enforcing the provided rule. Store
// failures degrade open: the request is admitted and the failure logged.
func RateLimit(store RateLimitStore, rule RateLimitRule, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if rule.Name == "" {
		rule.Name = "default"
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		key := rule.Name + ":" + ip
		allowed, retryAfter, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window, time.Now())
		if err != nil {
			log.Warn("rate limit check failed", zap.String("rule", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
