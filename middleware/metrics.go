package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tnpportal/portal/metrics"
)

// RequestMetrics records count and latency per matched route.
func RequestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(ctx.Request.Context(), ctx.Request.Method, route, ctx.Writer.Status(), time.Since(start))
	}
}
