package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-records/internal/service"
)

const unmatchedRoute = "unmatched"

// opsRoutes are polled by orchestrators and Prometheus; counting them would drown the API traffic.
var opsRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics records request count and latency per route template.
// Requests that match no route share one label so ids never reach Prometheus.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		path := c.FullPath()
		if _, skip := opsRoutes[path]; skip {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
