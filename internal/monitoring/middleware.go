package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request metrics and logs every request
func Middleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		c.Next()

		status := c.Writer.Status()
		if status >= 400 {
			metrics.IncrementError()
		}
		logger.RequestLogger(c.Request.Method, c.Request.URL.Path, c.ClientIP(), status, time.Since(start))
	}
}
