package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger puts a logger tagged with the request id into the request context
// and logs every request once it is handled. It must run after
// middleware.RequestID.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		logger := slog.Default().With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
		c.SetRequest(req.WithContext(context.WithValue(req.Context(), loggerKey, logger)))

		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		level := slog.LevelDebug
		if status >= 500 {
			level = slog.LevelWarn
		}
		logger.Log(req.Context(), level, "request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
		return err
	}
}

// FromContext returns the request logger, or the default logger outside a
// request.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
