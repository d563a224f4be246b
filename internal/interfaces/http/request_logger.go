package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/pkg/logger"
)

const localError = "error"

// RequestLogger registra una línea por request con método, ruta, status, latencia y actor.
// 5xx → Error, 4xx → Warn, resto → Info.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = logger.OrNop(log).Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		if err, ok := c.Locals(localError).(error); ok {
			ev = ev.Err(err)
		} else if chainErr != nil {
			ev = ev.Err(chainErr)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("bar_id", GetBarID(c)).
			Str("user_id", GetUserID(c)).
			Str("device_id", c.Get(HeaderDeviceID)).
			Msg("request")
		return nil
	}
}
