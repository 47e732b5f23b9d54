// Package logging installs the default slog handler.
//
// Usage:
//
//	logging.Setup("debug", false) // colored output on stderr
//	logging.Setup("", true)       // JSON lines at INFO, for the server
//
// An empty level falls back to the LOG_LEVEL environment variable
// (debug, info, warn, error; default: info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures logging on stderr at the given level.
func Setup(level string, json bool) {
	slog.SetDefault(New(os.Stderr, level, json))
}

// New returns a logger writing to w: tint-colored text, or JSON when json is set.
func New(w io.Writer, level string, json bool) *slog.Logger {
	lvl := ParseLevel(level)
	if json {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	}))
}

// ParseLevel maps a level name to a slog level. Empty input reads LOG_LEVEL.
func ParseLevel(level string) slog.Level {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
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
