// Package logging defines a minimal structured-logging interface used across
// the server. Implementations wrap slog and zerolog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "instance", mode)
type Logger interface {
	// Debug logs diagnostic detail that is normally filtered out.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// New builds a JSON logger writing to w. backend selects the implementation
// ("slog" or "zerolog"); unknown values fall back to slog.
func New(w io.Writer, backend, level string) Logger {
	switch strings.ToLower(backend) {
	case BackendZerolog:
		lvl, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}
		return NewZerologLogger(zerolog.New(w).Level(lvl).With().Timestamp().Logger())
	default:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl = slog.LevelInfo
		}
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})))
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewZerologLogger(zerolog.Nop())
}
