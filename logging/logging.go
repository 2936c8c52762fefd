// Package logging initializes the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Init installs a JSON slog handler as the default logger. level accepts
// debug/info/warn/error; anything else means info.
func Init(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
