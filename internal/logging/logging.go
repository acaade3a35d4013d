// Package logging builds the zerolog loggers used by the CLI and the server.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"taskgrid/internal/config"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// New returns a human-readable logger writing to w.
// With debug set it logs everything from debug level up, otherwise only
// from base level up.
func New(w io.Writer, debug bool, base zerolog.Level) zerolog.Logger {
	level := base
	if debug {
		level = zerolog.DebugLevel
	}

	cw := zerolog.NewConsoleWriter()
	cw.Out = w
	cw.TimeFormat = time.DateTime
	cw.NoColor = true

	return zerolog.New(cw).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ForServer returns the server logger for the configured environment.
// Production logs JSON lines; other environments log to the console.
func ForServer(settings config.Settings, debug bool) zerolog.Logger {
	if settings.Env != config.EnvProd {
		base := zerolog.InfoLevel
		if settings.Env == config.EnvLocal {
			base = zerolog.DebugLevel
		}
		return New(os.Stdout, debug, base)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Logger()
}
