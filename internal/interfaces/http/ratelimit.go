package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewMemoryLimiter builds a per-IP limiter from a formatted rate such as "20-M"
func NewMemoryLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// rateLimit rejects clients over the limit with 429. A nil limiter allows everything.
func rateLimit(l *limiter.Limiter, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		lctx, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Error("Failed to get rate limit context", "ip", ip, "error", err)
			fail(c, http.StatusInternalServerError, "rate limit check failed")
			return
		}

		if lctx.Reached {
			logger.Info("Rate limit exceeded", "ip", ip, "limit", lctx.Limit)
			fail(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		c.Next()
	}
}
