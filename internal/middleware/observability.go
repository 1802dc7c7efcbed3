package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/examify-bd/examify-api/internal/observability"
)

// Observability attaches Prometheus metrics and structured latency/error logging for API endpoints.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		if strings.HasPrefix(c.Path(), "/api/") {
			route := routeTemplate(c)
			method := c.Method()
			status := c.Response().StatusCode()
			statusLabel := fmt.Sprintf("%d", status)

			observability.Requests().WithLabelValues(method, route, statusLabel).Inc()
			observability.Latency().WithLabelValues(method, route).Observe(duration.Seconds())
			if status >= fiber.StatusBadRequest {
				observability.Errors().WithLabelValues(method, route, statusLabel).Inc()
			}

			requestLogger := logger.With().
				Str("correlation_id", GetCorrelationID(c)).
				Str("route", route).
				Str("method", method).
				Int("status", status).
				Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
				Logger()

			switch {
			case status >= fiber.StatusInternalServerError:
				requestLogger.Error().Msg("request failed")
			case status >= fiber.StatusBadRequest:
				requestLogger.Warn().Msg("request completed with client error")
			default:
				requestLogger.Info().Msg("request completed")
			}
		}

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}
