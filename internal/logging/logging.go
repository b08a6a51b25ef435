// Package logging configures the controller's single process-wide
// zerolog logger: level from -v stacking (and --debug), pretty
// console output on a TTY, plain JSON otherwise. Grounded on
// cuemby-warren's pkg/log, restructured around CLI flags instead of a
// daemon's env/config file.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New builds the controller's logger. verbosity 0 maps to warn, 1 to
// info, 2+ to debug; --debug forces debug regardless of verbosity.
// noColor disables the pretty console writer even on a TTY.
func New(verbosity int, debug, noColor bool) zerolog.Logger {
	level := levelFor(verbosity, debug)

	var w io.Writer = os.Stderr
	if !noColor && isatty.IsTerminal(os.Stderr.Fd()) {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: false}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func levelFor(verbosity int, debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	switch {
	case verbosity >= 2:
		return zerolog.DebugLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// ForHost returns a sub-logger tagged with the host's name, mirroring
// the teacher's ExecContext.Trace span-tagging idiom with zerolog
// fields instead of a custom Span type.
func ForHost(base zerolog.Logger, host string) zerolog.Logger {
	return base.With().Str("host", host).Logger()
}

// ForOperation returns a sub-logger further tagged with the operation
// kind (e.g. "package", "file", "service") currently executing.
func ForOperation(base zerolog.Logger, kind string) zerolog.Logger {
	return base.With().Str("op", kind).Logger()
}

// Remote builds the executor-side logger (C2): stderr only, no color
// codes, since stderr there is inherited directly from the child
// process rather than tunnelled alongside stdin/stdout.
func Remote() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
