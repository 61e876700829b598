package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts, durations and in-flight requests. Paths are
// labelled by route template so path parameters do not explode cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		method := c.Request.Method
		m.HTTPActiveRequests.WithLabelValues(method).Inc()
		defer m.HTTPActiveRequests.WithLabelValues(method).Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, method, path, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
