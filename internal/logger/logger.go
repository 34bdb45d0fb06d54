// Package logger configures the global zerolog logger from CLI options.
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group for logging configuration.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Logging level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log output format" choice:"json" choice:"pretty" default:"pretty"`
}

// Setup applies the options to the global logger.
func (l *Logger) Setup() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if l.Format == "pretty" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
