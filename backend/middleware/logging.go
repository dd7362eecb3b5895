package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eroz/backend/metrics"
)

const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware logs each request and records it in m, which may be nil.
func LoggingMiddleware(logger *zap.SugaredLogger, m *metrics.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()
		if err != nil {
			// Let fiber's error handler write the response before we read the status.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		latency := time.Since(start)
		route := c.Route().Path

		m.ObserveHTTP(route, c.Method(), status, latency)

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"route", route,
			"status", status,
			"latency", latency,
			"ip", c.IP(),
		}
		switch {
		case err != nil:
			logger.Errorw("request failed", append(fields, "error", err)...)
		case status >= fiber.StatusInternalServerError:
			logger.Errorw("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warnw("request", fields...)
		default:
			logger.Infow("request", fields...)
		}
		return nil
	}
}
