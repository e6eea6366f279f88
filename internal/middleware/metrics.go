package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/abordo/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency per route template. Health probes are not
// recorded and requests that match no route share one label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if isHealthProbe(path) {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func isHealthProbe(path string) bool {
	return strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/api/health")
}
