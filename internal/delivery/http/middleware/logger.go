package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sanitation-complaints/internal/domain"
	"go.uber.org/zap"
)

// Logger - one entry per request; 5xx are logged at error level
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if actor, ok := c.Locals(actorKey).(domain.Actor); ok {
			fields = append(fields, zap.String("actor", actor.String()))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("HTTP request", append(fields, zap.Error(err))...)
		default:
			logger.Info("HTTP request", fields...)
		}
		return err
	}
}
