// Package logging configures the process-wide slog default. Everything goes
// to stderr because the meet TUI owns stdout; verbosity comes from the
// LOG_LEVEL environment variable and defaults to errors only, so a room call
// is not scribbled over by connection chatter.
package logging

import (
	"log/slog"
	"os"
)

func Init() {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(os.Getenv("LOG_LEVEL")),
		}),
	)
	slog.SetDefault(logger)
}

// parseLevel maps a LOG_LEVEL value to a slog level. Unrecognized values keep
// the quiet default rather than flooding the terminal.
func parseLevel(value string) slog.Level {
	switch value {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
