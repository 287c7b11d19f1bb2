package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New initializes a new slog logger and sets it as the default.
// It reads the LOG_FORMAT environment variable to determine the output format.
// Defaults to "text" for development, can be set to "json" for production.
// LOG_LEVEL accepts debug, info, warn or error and defaults to debug.
func New() *slog.Logger {
	logger := NewWithWriter(os.Stdout, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter builds a logger without touching the process default.
func NewWithWriter(w io.Writer, format, level string) *slog.Logger {
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: parseLevel(level),
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     parseLevel(level),
			AddSource: true, // Adds source file and line number
		})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
