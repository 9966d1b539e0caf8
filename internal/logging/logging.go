package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates the process-wide *slog.Logger, sets it as the default, and
// returns it. Both the server and the agent call this first and then derive
// component loggers from the result with With("component", ...). The level
// parameter accepts "debug", "info", "warn", "error" (case-insensitive);
// anything else falls back to info.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
