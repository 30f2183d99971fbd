// Package logging configures the global zerolog logger for driverlog.
//
// Diagnostic logging always goes to stderr so that parse reports on stdout
// stay machine-readable.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvNoColor disables ANSI colors in console output when set to "true" or "1".
const EnvNoColor = "DRIVERLOG_NOCOLOR"

// Init configures the global zerolog logger. Invalid levels fall back to
// info rather than failing startup.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    os.Getenv(EnvNoColor) == "true" || os.Getenv(EnvNoColor) == "1",
	}

	log.Logger = zerolog.New(consoleWriter).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
