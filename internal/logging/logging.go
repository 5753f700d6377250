// Package logging builds the root zerolog logger from configuration.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"strategy-builder/config"
)

// New constructs the process-wide logger. Unknown levels fall back to info.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.JSONFormat {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger.Level(level).With().Timestamp().Logger()
}
