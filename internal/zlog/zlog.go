// Package zlog wires up the process-wide zerolog logger used by every
// other package in this module.
package zlog

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs a human-readable console writer on the global logger, the
// way cmd/onedriver/main.go does for interactive use.
func Init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// Levels returns the recognized logging level names, in increasing order
// of verbosity.
func Levels() []string {
	return []string{"fatal", "error", "warn", "info", "debug", "trace"}
}

// StringToLevel converts a level name to a zerolog.Level, defaulting to
// debug (and logging an error) on an unrecognized value.
func StringToLevel(input string) zerolog.Level {
	if input == "" {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(input)
	if err != nil {
		log.Error().Err(err).Str("level", input).Msg("could not parse log level, defaulting to \"debug\"")
		return zerolog.DebugLevel
	}
	return level
}

// SetLevel parses and installs name as the global minimum log level.
func SetLevel(name string) {
	zerolog.SetGlobalLevel(StringToLevel(name))
}
