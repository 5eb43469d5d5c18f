// Package log provides structured logging for howaway.
// It wraps slog with JSON output in production and text otherwise.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	mu     sync.RWMutex
)

// ParseLevel maps "debug", "info", "warn", "error" to a slog level.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New builds a logger writing to w at the given level
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init sets the global logger. JSON is used when GO_ENV=production.
func Init(level string) {
	l := New(os.Stdout, level, os.Getenv("GO_ENV") == "production")

	mu.Lock()
	logger = l
	mu.Unlock()

	slog.SetDefault(l)
}

// L returns the global logger instance
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init("info")
		return L()
	}
	return l
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
