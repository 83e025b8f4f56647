// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFromVerbosity maps the repeat count of the -d flag to a level:
// 0 is info, 1 is debug, 2 or more is trace.
func LevelFromVerbosity(v int) zerolog.Level {
	switch {
	case v <= 0:
		return zerolog.InfoLevel
	case v == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Init points the global logger at a console writer on w.
func Init(level zerolog.Level, w io.Writer) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isTerminal(w),
		TimeFormat: "2006-01-02 15:04:05",
	}
	log.Logger = zerolog.New(console).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
