// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the correlation and logging backbone of the API:
//
//   - RequestID() assigns (or propagates) a per-request correlation ID,
//     exposed via the X-Request-ID header and the Gin context.
//   - Logger() emits one structured zerolog access line per request and
//     stashes a request-scoped logger under the "logger" context key.
//   - Recovery() converts panics into JSON 500 responses, keeping the
//     correlation ID on the error body.
//   - LoggerFrom() retrieves the request-scoped logger for handlers and
//     services that want to enrich their own log lines.
//
// Recommended order: RequestID, then Logger, then Recovery, so panics and
// access lines always carry the correlation ID.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key holding the correlation ID.
	requestIDKey = "requestID"
	// requestIDHeader propagates the correlation ID to and from clients.
	requestIDHeader = "X-Request-ID"
	// userIDKey is the Gin context key set by RequireAuth.
	userIDKey = "userID"
	// maxQueryLogBytes caps how much of the raw query string is logged.
	maxQueryLogBytes = 1024
)

// RequestID reuses an incoming X-Request-ID when present, otherwise mints a
// UUIDv4, and makes the ID available on both the response header and the Gin
// context. Install it first so everything downstream can rely on it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes a structured access log per request and attaches a
// request-scoped zerolog.Logger to the Gin context (key "logger").
//
// The emitted level follows the outcome: error for 5xx or collected Gin
// errors, warn for 4xx, info otherwise. The path field prefers the
// registered route over the raw URL to keep log volume greppable.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path // 404 or unrouted
		}

		l := log.With().
			Str("request_id", ctxString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", clip(c.Request.URL.RawQuery, maxQueryLogBytes)).
			Int64("bytes_in", c.Request.ContentLength).
			Logger()
		c.Set("logger", &l)

		c.Next()

		// The auth middleware runs after Logger, so pick up the user only now.
		uid, _ := c.Get(userIDKey)

		ev := l.With().
			Str("user_id", ctxString(uid)).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch status := c.Writer.Status(); {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery intercepts panics, logs the value and stack, and answers with a
// standardized JSON 500 when nothing has been written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", ctxString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, ctxString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": ctxString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger attached by Logger(), or the
// global logger when none is present. Never returns nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// ctxString coerces a Gin context value to string, empty when absent or of
// another type.
func ctxString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// clip truncates s to max bytes, marking the cut. max <= 0 disables clipping.
func clip(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
