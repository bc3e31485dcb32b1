package logger

import (
	"log/slog"
	"os"
)

// EnvTestLogLevel raises or lowers the level of NewTestLogger. Any non-level
// value (TEST_DEBUG=1) selects DEBUG.
const EnvTestLogLevel = "TEST_DEBUG"

// NewTestLogger returns a text logger on stdout that only prints warnings
// unless TEST_DEBUG is set.
func NewTestLogger() *slog.Logger {
	level := slog.LevelWarn
	if v := os.Getenv(EnvTestLogLevel); v != "" {
		level = ParseLevel(v, slog.LevelDebug)
	}
	return NewLogger(Config{Level: level, Format: "text", Output: os.Stdout})
}
