// Package logging configures zerolog and attaches request-scoped loggers.
package logging

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Config struct {
	Level  string
	Format string // "json" or "console"
	Output io.Writer
}

// New builds the root logger. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Middleware stores a child logger carrying the request id in the request
// context and logs one line per request. Use zerolog.Ctx to retrieve it.
func Middleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(reqLogger.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := reqLogger.Info()
			if status >= http.StatusInternalServerError {
				event = reqLogger.Error()
			} else if r.URL.Path == "/health" {
				event = reqLogger.Debug()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
