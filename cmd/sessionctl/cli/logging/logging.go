// Package logging wraps log/slog with component-scoped context attributes
// and a file-backed handler.
//
// Log output goes to {claudeDir}/logs/sessionctl.log so command output stays
// clean for piping; when the log file cannot be opened the handler falls back
// to stderr.
package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
)

type componentKey struct{}

var (
	logger  = slog.New(slog.NewTextHandler(os.Stderr, nil))
	logFile *os.File
)

// Init configures the package logger to write to the log file at the given
// level. Safe to call once at process start; errors fall back to stderr.
func Init(level slog.Level) error {
	logDir := filepath.Join(paths.ClaudeDir(), "logs")
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return err //nolint:wrapcheck // caller logs and continues on stderr
	}

	f, err := os.OpenFile(filepath.Join(logDir, "sessionctl.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err //nolint:wrapcheck // caller logs and continues on stderr
	}

	logFile = f
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return nil
}

// Close releases the log file if Init opened one.
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// ParseLevel maps a settings log level string to a slog.Level.
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags the context so subsequent log calls carry a component attribute.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey{}, component)
}

func attrsFrom(ctx context.Context, args []any) []any {
	if c, ok := ctx.Value(componentKey{}).(string); ok && c != "" {
		return append([]any{slog.String("component", c)}, args...)
	}
	return args
}

// Debug logs at DEBUG level with the context's component attribute.
func Debug(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, attrsFrom(ctx, args)...)
}

// Info logs at INFO level with the context's component attribute.
func Info(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, attrsFrom(ctx, args)...)
}

// Warn logs at WARN level with the context's component attribute.
func Warn(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, attrsFrom(ctx, args)...)
}

// Error logs at ERROR level with the context's component attribute.
func Error(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, attrsFrom(ctx, args)...)
}

// LogDuration logs a message with a duration_ms attribute measured from start.
func LogDuration(ctx context.Context, level slog.Level, msg string, start time.Time, args ...any) {
	args = append(args, slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	logger.Log(ctx, level, msg, attrsFrom(ctx, args)...)
}
