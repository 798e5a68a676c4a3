package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger. Development gets human-readable
// text with debug records; everything else gets JSON at INFO.
func Setup(env string) {
	slog.SetDefault(slog.New(StdoutHandler(env)))
}

// StdoutHandler returns the console handler used both before and after the
// database sink is attached.
func StdoutHandler(env string) slog.Handler {
	if env == "development" || env == "dev" {
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
}
