// Package logging wires the process-wide slog handler: colorized output on
// an interactive terminal, JSON lines otherwise.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// NewHandler picks a handler for w. Terminals get tint's human-readable
// colorized format; anything else (files, pipes, container logs) gets JSON.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// Setup installs the default logger on stderr and returns it.
func Setup(levelName string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stderr, ParseLevel(levelName)))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config string to a slog.Level. Unknown values fall back
// to info rather than failing startup.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
