// Package logger provides the structured logger shared by token-cost.
//
// It is a thin interface over log/slog so that packages depend on a small
// surface and tests can pass Noop.
//
// Example usage:
//
//	log, err := logger.New(logger.Config{Level: "debug", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	log = log.With("run_id", runID)
//	log.Info("scan complete", "files", 12, "duplicates", 3)
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// LevelOff disables all output when used as a handler level.
const LevelOff = slog.Level(math.MaxInt32)

// Logger provides structured logging with levels and fields.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an informational message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})

	// With returns a new logger with additional context fields.
	With(keysAndValues ...interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error, off).
	// Empty means warn, so reports are not interleaved with chatter.
	Level string

	// Output is the destination (stdout, stderr, or a file path).
	// Ignored when Writer is set.
	Output string

	// Format is the output format (text, json). Empty means text.
	Format string

	// Writer, if non-nil, receives log output directly.
	Writer io.Writer
}

type logger struct {
	slogger *slog.Logger
}

// New creates a logger from cfg.
//
// Returns ErrInvalidLevel or ErrInvalidFormat for unknown names, and an
// error if the output file cannot be opened.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer, err = openOutput(cfg.Output)
		if err != nil {
			return nil, err
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		handler = slog.NewTextHandler(writer, opts)
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Format)
	}

	return &logger{slogger: slog.New(handler)}, nil
}

// Debug implements Logger.Debug.
func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.slogger.Debug(msg, keysAndValues...)
}

// Info implements Logger.Info.
func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.slogger.Info(msg, keysAndValues...)
}

// Warn implements Logger.Warn.
func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.slogger.Warn(msg, keysAndValues...)
}

// Error implements Logger.Error.
func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.slogger.Error(msg, keysAndValues...)
}

// With implements Logger.With.
func (l *logger) With(keysAndValues ...interface{}) Logger {
	return &logger{slogger: l.slogger.With(keysAndValues...)}
}

// ParseLevel converts a level name to a slog.Level. Matching is
// case-insensitive; "warning" is accepted for warn and "off" disables
// logging.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "off", "none", "quiet":
		return LevelOff, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// openOutput returns the writer for an output destination.
func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		// #nosec G304: output path comes from trusted config
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
		}
		return f, nil
	}
}

// Default returns a text logger writing warnings and errors to stderr.
func Default() Logger {
	return &logger{
		slogger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// Noop returns a logger that discards all log messages.
func Noop() Logger {
	return &logger{
		slogger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelOff})),
	}
}
