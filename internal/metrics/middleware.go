package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request count and duration for every route. Uses the
// route template, not the raw URL, so path cardinality stays bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		RequestCounter.WithLabelValues(status, c.Request.Method, path).Inc()
		RequestDuration.WithLabelValues(status, c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
