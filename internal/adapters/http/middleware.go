package http

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	headerRequestID = "X-Request-Id"
	maxRequestIDLen = 128

	ctxRequestID = "request_id"
	ctxLogger    = "logger"
)

// RequestIDMiddleware gives every request an X-Request-Id, reusing a short
// client-supplied one, and stores a logger tagged with it. On session routes
// the logger also carries the session id.
func RequestIDMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			c.Set(ctxRequestID, id)

			l := logger.With("request_id", id)
			if sid := c.Param("id"); sid != "" {
				l = l.With("session_id", sid)
			}
			c.Set(ctxLogger, l)
			return next(c)
		}
	}
}

// LoggingMiddleware logs each request with structured fields.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			level := slog.LevelInfo
			if c.Response().Status >= 500 {
				level = slog.LevelError
			}
			requestLogger(c, logger).Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// requestLogger returns the logger stored by RequestIDMiddleware, or
// fallback when the middleware did not run.
func requestLogger(c echo.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := c.Get(ctxLogger).(*slog.Logger); ok {
		return l
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}
