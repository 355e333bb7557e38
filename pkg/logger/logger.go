package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs the logger shared by every component. LOG_LEVEL selects the
// level and LOG_FORMAT=text switches from JSON to logfmt for local runs.
func New() *slog.Logger {
	return newLogger(os.Stdout, os.Getenv)
}

func newLogger(w io.Writer, getenv func(string) string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(getenv("LOG_LEVEL"))}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(getenv("LOG_FORMAT")), "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "fitcoach")
}

func parseLevel(level string) slog.Leveler {
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
