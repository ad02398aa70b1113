package logging

import (
	"context"
	"fmt"
	"log/slog"
)

// moduleKey names the component a logger belongs to. Loggers are tagged
// once per component; a nested With replaces the tag instead of repeating it.
const moduleKey = "module"

// SlogLogger adapts *slog.Logger to Logger.
type SlogLogger struct {
	l      *slog.Logger
	module string
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelDebug, msg, args)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelInfo, msg, args)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelWarn, msg, args)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.log(ctx, slog.LevelError, msg, args)
}

func (s *SlogLogger) With(args ...any) Logger {
	module, rest := splitModule(s.module, args)
	return &SlogLogger{l: s.l.With(rest...), module: module}
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args []any) {
	if !s.l.Enabled(ctx, level) {
		return
	}
	if s.module != "" {
		args = append([]any{moduleKey, s.module}, args...)
	}
	s.l.Log(ctx, level, msg, args...)
}

// splitModule pulls every "module" pair out of args. The last one wins over
// current.
func splitModule(current string, args []any) (string, []any) {
	rest := make([]any, 0, len(args))
	for i := 0; i < len(args); i++ {
		if key, ok := args[i].(string); ok && key == moduleKey && i+1 < len(args) {
			current = fmt.Sprint(args[i+1])
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	return current, rest
}
