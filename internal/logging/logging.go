// Package logging builds the zerolog logger shared by all components.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const permission = 0644

// Options configures New.
type Options struct {
	Level   string    // trace, debug, info, warn, error; default info
	Path    string    // log file, appended to; ignored when Console is set
	Console bool      // human-readable output on Writer instead of a file
	Writer  io.Writer // console destination, default os.Stderr
}

// Logger is a zerolog.Logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New creates a logger. The TUI owns the terminal, so by default logs go to
// a file; Console is for one-shot CLI commands run with --verbose.
func New(opts Options) (*Logger, error) {
	level := ParseLevel(opts.Level)

	if opts.Console {
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}
		console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
		return &Logger{Logger: zerolog.New(console).Level(level).With().Timestamp().Logger()}, nil
	}

	if opts.Path == "" {
		return &Logger{Logger: zerolog.Nop()}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.SyncWriter(file)).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return &Logger{Logger: logger, file: file}, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
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
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
