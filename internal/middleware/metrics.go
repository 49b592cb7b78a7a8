package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/scholardist/internal/metrics"
)

// Metrics records request count and latency per matched route template, so
// /programs/1 and /programs/2 share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		done := metrics.HTTPStarted()
		start := time.Now()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
