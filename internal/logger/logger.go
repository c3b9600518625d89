package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger creates a new zerolog logger with console output
func NewLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}
	return log.Output(output).With().Timestamp().Logger()
}

// NewLoggerWithLevel creates a new logger with a level parsed from a name
// such as "debug" or "warn". Unknown names fall back to info.
func NewLoggerWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return NewLogger().Level(lvl)
}
