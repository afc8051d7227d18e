// Package logging configures the zerolog logger shared by the TUI and CLI.
//
// The interactive UI owns the terminal, so in that mode logs go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It discards everything until Init runs.
var Logger = zerolog.Nop()

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string

	// Format is "console" or "json".
	Format string

	// File, when set, receives the log instead of Output.
	File string

	// Output defaults to stderr.
	Output io.Writer
}

// Init builds the global logger. The returned closer releases the log file,
// if one was opened.
func Init(cfg Config) (io.Closer, error) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var closer io.Closer = nopCloser{}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closer = f
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    cfg.File != "",
		}
	}

	Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

// ParseLevel converts a level name to a zerolog level; unknown names mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
