package middleware

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// IngestRateLimit caps device traffic per API key. ESP32 firmware samples at
// tens of Hz; anything past the limit is a runaway loop or a stuck retry.
func IngestRateLimit(perSecond uint) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: perSecond,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc: func(c *gin.Context) string {
			if key := c.GetHeader("X-API-Key"); key != "" {
				return key
			}
			if key := c.Query("api_key"); key != "" {
				return key
			}
			return c.ClientIP()
		},
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": time.Until(info.ResetTime).Seconds(),
			})
		},
	})
}
