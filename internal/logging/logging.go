// Package logging configures the structured logger used across the module.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options configure logger construction.
type Options struct {
	// Verbosity maps to a level: 0 = warn, 1 = info, 2 = debug, 3+ = trace.
	Verbosity int

	// Writer receives the console-formatted output. Nil means stderr.
	Writer io.Writer
}

// New creates the root logger. Log output goes to stderr by default so the
// run summary on stdout stays clean when piped.
func New(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"

	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	return zerolog.New(cw).Level(level(opts.Verbosity)).With().Timestamp().Logger()
}

// Nop returns a logger that never writes anything.
func Nop() zerolog.Logger { return zerolog.Nop() }

func level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
