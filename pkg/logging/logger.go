// Package logging provides structured logging configuration using zerolog.
// Every component derives its logger from the global one with a
// "component" field.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
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

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return Component(log.Logger, component)
}

// Component tags base with a component name. base must not carry a
// component field already; zerolog would emit the key twice.
func Component(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// ParseLevel validates a level name. Unknown names return LevelInfo and an
// error.
func ParseLevel(s string) (LogLevel, error) {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return level, nil
	case "warning":
		return LevelWarn, nil
	case "":
		return LevelInfo, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key, coalesced loads)
//   - GitHub calls that succeeded
//   - Rate limit state updates (healthy)
//   - Served HTTP requests
//
// Info: Normal operation events
//   - Portal initialized (repository, backend, ttl)
//   - Golden set resolved from the manifest or a scan
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Rate limit running low
//   - Cache backend errors (value is recomputed)
//   - Tree unavailable (empty tree served, not cached)
//   - Missing or invalid golden manifest
//
// Error: Error conditions requiring attention
//   - Missing GITHUB_TOKEN
//   - GitHub errors other than 404
//   - Rate limit exhausted
//   - Failed API requests
//
// Context Fields:
//   - component: Emitting component (portal, github-client, cache, ratelimit, server)
//   - operation: GitHub operation (fetch_tree, fetch_blob)
//   - outcome: Call outcome (success, not_found, configuration_error, remote_error, parse_error)
//   - path: Repository path or HTTP path
//   - branch: Branch whose tree was read
//   - key: Cache key
//   - status_code: HTTP status code
//   - duration: Request duration
//   - remaining: Requests left in the rate limit window
//   - phase: Golden resolution phase (manifest, scan, degraded)
