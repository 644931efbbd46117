package main

import (
	"io"
	"log/slog"
	"os"
)

// initLogging configures the global slog default. Format is "text" or
// "json"; w defaults to os.Stderr.
func initLogging(level slog.Level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// parseLogging reads the log settings, falling back to warn and text. The
// values are validated again with the rest of the settings.
func parseLogging(level, format string) (slog.Level, string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	if format != "json" {
		format = "text"
	}
	return l, format
}
