package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mimosa-app/mimosa/internal/logger"
)

// RequestLogger logs one structured line per request. Bodies are never
// logged: diary text stays out of the log stream.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		event := logger.Logger.Info()
		if err != nil || status >= fiber.StatusInternalServerError {
			event = logger.Logger.Error()
		} else if status >= fiber.StatusBadRequest {
			event = logger.Logger.Warn()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")

		return err
	}
}
