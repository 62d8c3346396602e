package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/pkg/metrics"
)

// unroutedLabel collapses requests that matched no route into one series, so
// arbitrary probing paths cannot grow the label set unbounded.
const unroutedLabel = "unrouted"

// Metrics observes request latency per route template, method, and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unroutedLabel
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
