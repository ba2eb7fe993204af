// Package log provides the module's logging interface.
//
// It is a thin, component-scoped wrapper around log/slog. There is no
// abstraction beyond that: callers get a *LazyLogger bound to a component
// name and use it directly.
package log

import (
	"context"
	"log/slog"
	"os"
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetDefault replaces the default logger used by every LazyLogger.
func SetDefault(l *slog.Logger) {
	defaultLogger = l
	slog.SetDefault(l)
}

// Default returns the current default logger.
func Default() *slog.Logger {
	return defaultLogger
}

// LazyLogger resolves this package's default logger on every call, so
// redirecting it at runtime with SetDefault (tests, log-file rotation)
// affects loggers already handed out to components.
type LazyLogger struct {
	component string
}

// Logger returns a LazyLogger scoped to component.
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) log() *slog.Logger {
	return defaultLogger.With("component", l.component)
}

func (l *LazyLogger) Debug(msg string, args ...any) { l.log().Debug(msg, args...) }
func (l *LazyLogger) Info(msg string, args ...any)  { l.log().Info(msg, args...) }
func (l *LazyLogger) Warn(msg string, args ...any)  { l.log().Warn(msg, args...) }
func (l *LazyLogger) Error(msg string, args ...any) { l.log().Error(msg, args...) }

func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log().DebugContext(ctx, msg, args...)
}
func (l *LazyLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log().InfoContext(ctx, msg, args...)
}

// TruncateID safely truncates an id for log display, avoiding a
// slice-bounds panic on short ids.
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}
