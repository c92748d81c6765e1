package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// ProfilingLabels tags the rest of the chain with the route, method and
// caller role so Pyroscope can split CPU and allocation profiles by endpoint.
// It must run after Actor. With profiling disabled it is a passthrough.
func ProfilingLabels(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		role := "unknown"
		if actor, ok := GetActor(c); ok {
			role = string(actor.Role)
		}
		labels := pyroscope.Labels("route", route, "method", c.Request.Method, "role", role)
		pyroscope.TagWrapper(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
