// Package logging builds the application's slog loggers.
//
// The "text" format uses ConsoleHandler:
// [LEVEL] [COMPONENT] [HH:MM:SS] message key=value
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/eshaffer321/settleup/internal/infrastructure/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names
// default to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// NewLogger creates a structured logger writing to stderr.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerTo(os.Stderr, cfg)
}

// NewLoggerTo creates a structured logger writing to w.
func NewLoggerTo(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewConsoleHandler(w, opts)
	}
	return slog.New(handler)
}

// NewLoggerWithComponent creates a logger scoped to a component (e.g.
// "api", "engine", "storage").
func NewLoggerWithComponent(cfg config.LoggingConfig, component string) *slog.Logger {
	return NewLogger(cfg).With(ComponentKey, component)
}
