package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/invoicing-api/pkg/logger"
)

// LocalRequestID key donde el middleware requestid deja el id de la petición.
const LocalRequestID = "requestid"

// AccessLog registra una línea por petición: 5xx como error, 4xx como warn, el resto info.
func AccessLog(log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			// El error se resuelve aquí para registrar el status real de la respuesta.
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev = ev.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start))
		if rid, ok := c.Locals(LocalRequestID).(string); ok {
			ev = ev.Str("request_id", rid)
		}
		if tid := GetTenantID(c); tid != "" {
			ev = ev.Str("tenant_id", tid)
		}
		if err, ok := c.Locals(LocalError).(error); ok {
			ev = ev.Err(err)
		}
		ev.Msg("http request")
		return nil
	}
}
