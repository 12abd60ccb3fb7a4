// Package parser provides JSONL parsing for Claude Code usage logs.
//
// Each non-blank line of a log file is one JSON object. Only a few keys
// matter for cost accounting: the message object (id, model, usage), the
// top-level requestId, an optional pre-computed costUSD and the timestamp.
// Everything else is ignored.
//
// Lines that are not valid JSON are skipped rather than failing the file:
// an actively appended log routinely ends in a partially written line.
//
// Example usage:
//
//	stats, err := parser.ParseFile("/path/to/session.jsonl", func(ev *parser.Event) error {
//	    fmt.Println(ev.Message.Model, ev.Message.Usage.Total())
//	    return nil
//	})
package parser

import (
	"github.com/shopspring/decimal"
)

// Event is one parsed log line.
//
// Absent keys decode to their zero values; absent objects decode to nil.
// A key holding a value of the wrong type decodes as if it were absent,
// except that numeric ids keep their literal text and whole-number floats
// are accepted as token counts.
type Event struct {
	Message   *Message         `json:"message"`
	RequestID string           `json:"requestId"`
	CostUSD   *decimal.Decimal `json:"costUSD"`
	Timestamp string           `json:"timestamp"`
}

// Message contains the API response details including token usage.
type Message struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Usage *Usage `json:"usage"`
}

// Usage contains token consumption metrics for a single API call.
//
// Token classes:
// - InputTokens: regular input tokens
// - OutputTokens: generated output tokens
// - CacheCreationInputTokens: tokens written to the prompt cache
// - CacheReadInputTokens: tokens read from the prompt cache
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// Total returns the sum of all token classes.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens +
		u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// IsZero reports whether every token class is zero.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheCreationInputTokens == 0 && u.CacheReadInputTokens == 0
}

// Validate checks that all token counts are non-negative.
func (u Usage) Validate() error {
	if u.InputTokens < 0 || u.OutputTokens < 0 ||
		u.CacheCreationInputTokens < 0 || u.CacheReadInputTokens < 0 {
		return ErrNegativeTokenCount
	}
	return nil
}

// MessageID returns the message id, or "" when there is no message.
func (e *Event) MessageID() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.ID
}

// Model returns the model identifier, or "" when there is no message.
func (e *Event) Model() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.Model
}

// Validate decides whether the event is a billable usage record.
//
// Returns an error if:
//   - the line has no message object
//   - the message has no usage object
//   - any token count is negative
//   - every token count is zero
//
// These are skip reasons, not failures: most log lines carry no usage.
func (e *Event) Validate() error {
	if e.Message == nil {
		return ErrNoMessage
	}
	if e.Message.Usage == nil {
		return ErrNoUsage
	}
	if err := e.Message.Usage.Validate(); err != nil {
		return err
	}
	if e.Message.Usage.IsZero() {
		return ErrZeroUsage
	}
	return nil
}

// ScanStats counts what happened to the lines of one stream.
type ScanStats struct {
	// Lines is the number of lines read, including blank ones.
	Lines int

	// Blank is the number of empty or whitespace-only lines.
	Blank int

	// Malformed is the number of lines that were not a JSON object.
	Malformed int

	// Skipped is the number of valid JSON lines that carried no billable usage.
	Skipped int

	// Events is the number of events handed to the callback.
	Events int
}

// Add accumulates other into s.
func (s *ScanStats) Add(other ScanStats) {
	s.Lines += other.Lines
	s.Blank += other.Blank
	s.Malformed += other.Malformed
	s.Skipped += other.Skipped
	s.Events += other.Events
}
