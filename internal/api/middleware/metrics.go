package middleware

import (
	"strconv"

	"github.com/betledger/ledger/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware counts requests by method, route template and status.
// Unmatched paths are grouped under "unmatched" to bound label cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}
