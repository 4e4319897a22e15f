// Package logger builds the application's zerolog.Logger.
//
// Development (dev): human-readable console output at DEBUG level.
// Staging (staging): JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger for env writing to stdout.
func New(env string) zerolog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	switch env {
	case "prod":
		return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Str("env", env).Logger()
	case "staging":
		return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Str("env", env).Logger()
	default:
		console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
		return zerolog.New(console).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
}
