package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// LocalRequestID key de c.Locals donde el middleware requestid deja el ID de la petición.
const LocalRequestID = "request_id"

// RequestLogger registra cada petición con zerolog: método, ruta, estado y latencia.
// 5xx se registra como error, 4xx como warn.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		reqLog := log.With("request_id", localString(c, LocalRequestID))

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		ev := reqLog.Info()
		switch {
		case status >= 500:
			ev = reqLog.Error().Err(err)
		case status >= 400:
			ev = reqLog.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("http")
		return err
	}
}
