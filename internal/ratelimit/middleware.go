package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware rejects requests from clients over their per-IP budget
func Middleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
