// Package logging configures zerolog for the Thema client and its CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs every data request and cache lookup.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs run summaries and master data loads.
	LevelInfo LogLevel = "info"

	// LevelWarn logs rejected combinations and re-logins.
	LevelWarn LogLevel = "warn"

	// LevelError logs failed runs only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(zerologLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// ParseLevel validates a level name as given on the command line or in the
// config file. "warning" is accepted for warn.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q (want debug, info, warn or error)", name)
	}
}

func zerologLevel(level LogLevel) zerolog.Level {
	l, err := ParseLevel(string(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child of the global logger tagged with component.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Log Level Guidelines:
//
// Debug: per request detail
//   - Each data request and its row count
//   - Master data snapshot cache hits
//   - Token refreshes
//
// Info: one line per unit of work
//   - Master data loaded (source, relations)
//   - Query expanded (instances, pruned)
//   - Batch fetch started and completed (rows, rejected, duration)
//   - Files written by the CLI
//
// Warn: the run continues
//   - Combination returned no data
//   - Token rejected, logging in again
//   - Unreadable data response treated as empty
//   - Snapshot cache errors
//
// Error: the run stops
//   - Login refused
//   - Batch fetch aborted or failed
//
// Context Fields:
//   - component: client, session, catalog, batch, export, cli
//   - run_id: batch run identifier
//   - kind: dataset family (Hourly, Monthly, ...)
//   - endpoint: API path
//   - source: master data path
//   - instance: query instance as k=v pairs
//   - status: HTTP status code
//   - error_class: auth, client, server, network
//
// Passwords and tokens are never logged.
