package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// statusCode maps a Status to the HTTP status a liveness/readiness probe
// should see: healthy and degraded both return 200 (the process is still
// serving traffic, just with reduced fidelity), unhealthy returns 503.
func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handler returns an echo.HandlerFunc serving c's Snapshot as JSON,
// mirroring the pack's HealthCheckHandler convention of a single endpoint
// returning a status document rather than a bare 200.
func Handler(c *Collector) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		snapshot := c.Collect(ctx.Request().Context())
		return ctx.JSON(statusCode(snapshot.Status), snapshot)
	}
}

// RegisterRoutes mounts the health endpoints onto e: a combined
// status/detail endpoint at path, plus narrower endpoints for each
// subsystem section so a monitor can poll only what it needs.
func RegisterRoutes(e *echo.Echo, path string, c *Collector) {
	e.GET(path, Handler(c))
	e.GET(path+"/sampling", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, c.Collect(ctx.Request().Context()).Sampling)
	})
	e.GET(path+"/metrics", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, c.Collect(ctx.Request().Context()).Metrics)
	})
	e.GET(path+"/tracing", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, c.Collect(ctx.Request().Context()).Tracing)
	})
}
