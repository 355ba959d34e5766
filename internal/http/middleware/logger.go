package middleware

import (
	"time"

	"github.com/MatthewTaormina/Gemini-Web-UI/internal/logging"
	"github.com/MatthewTaormina/Gemini-Web-UI/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger emits one structured event per request. Query strings pass
// through the sanitizer so bearer tokens never reach the log.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status

			var event *zerolog.Event
			log := logging.Ctx(req.Context())
			switch {
			case status >= 500:
				event = log.Error()
			case status >= 400:
				event = log.Warn()
			default:
				event = log.Info()
			}

			event.
				Str("method", req.Method).
				Str("route", c.Path()).
				Str("path", req.URL.Path).
				Str("query", logger.SanitizeQuery(req.URL.Query())).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Str("remote_ip", c.RealIP()).
				Dur("latency", time.Since(start)).
				Msg("request")

			return nil
		}
	}
}
