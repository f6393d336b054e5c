// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the verbosity and encoding of log output.
type Options struct {
	Level  string // trace, debug, info, warn, error; empty means info
	Format string // console or json
	Output io.Writer
}

// Setup installs a global logger built from opts and returns it.
func Setup(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger
}

// Quiet silences everything below error level.
func Quiet() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}
