package parser

import (
	"errors"
	"fmt"
)

// Common errors returned by the parser package.
var (
	// ErrMalformedJSON is returned when a JSONL line cannot be parsed.
	ErrMalformedJSON = errors.New("malformed JSON line")

	// ErrNoMessage is returned when an event has no message object.
	ErrNoMessage = errors.New("event has no message")

	// ErrNoUsage is returned when a message has no usage object.
	ErrNoUsage = errors.New("message has no usage")

	// ErrZeroUsage is returned when every token count of a usage record is zero.
	ErrZeroUsage = errors.New("usage has no tokens")

	// ErrNegativeTokenCount is returned when any token count is negative.
	ErrNegativeTokenCount = errors.New("invalid token count: must be non-negative")

	// ErrFileRead is returned when a log file cannot be opened or read.
	ErrFileRead = errors.New("failed to read log file")
)

// ParseError provides context about a parsing failure.
type ParseError struct {
	Line int    // Line number where error occurred (1-indexed, 0 if unknown)
	Data string // The malformed line (truncated if too long)
	Err  error  // Underlying error
}

func (e *ParseError) Error() string {
	const maxLen = 100
	data := e.Data
	if len(data) > maxLen {
		data = data[:maxLen] + "..."
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s: %v", e.Line, data, e.Err)
	}
	return fmt.Sprintf("parse error: %s: %v", data, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
