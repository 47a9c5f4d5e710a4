package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"doc-converter/internal/domain"
)

// AppLogger implements the domain.Logger interface on top of slog
type AppLogger struct {
	logger *slog.Logger
}

// NewLogger creates a new JSON logger writing to stdout
func NewLogger(levelStr string) domain.Logger {
	return NewWithWriter(os.Stdout, levelStr, false)
}

// NewWithWriter creates a logger writing to w. Text output is used when text
// is true, JSON otherwise.
func NewWithWriter(w io.Writer, levelStr string, text bool) *AppLogger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(levelStr)}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &AppLogger{logger: slog.New(handler)}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.logger.Info(msg, fields...)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, fields...)...)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg, fields...)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg, fields...)
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
