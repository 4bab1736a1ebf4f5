// Package logger builds the structured logger shared by the client core and
// the development backend. Output is JSON on stdout so embedding shells can
// pipe it to their own log collector.
package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog. The level comes from
// SEVA_LOG_LEVEL (debug, info, warn, error); unset or unrecognized values
// mean info.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("SEVA_LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func parseLevel(raw string) slog.Level {
	switch raw {
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
