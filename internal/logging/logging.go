// Package logging installs the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// Setup makes a JSON slog handler the default logger, tagged with the
// service name so records from the three processes can be told apart when
// aggregated. Level comes from LOG_LEVEL (default INFO).
func Setup(service string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	slog.SetDefault(slog.New(handler).With(slog.String("service", service)))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
