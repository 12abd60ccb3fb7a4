package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Handler receives each billable event of a stream, in line order.
//
// The event is only valid for the duration of the call. Returning an
// error stops the scan and the error is returned from Scan.
type Handler func(ev *Event) error

// ParseLine parses a single JSONL line into an Event.
//
// The returned event is not validated; call Event.Validate to decide
// whether it carries billable usage.
func ParseLine(line []byte) (*Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return nil, &ParseError{Data: string(line), Err: ErrMalformedJSON}
	}

	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, &ParseError{Data: string(line), Err: fmt.Errorf("%w: %v", ErrMalformedJSON, err)}
	}
	return &ev, nil
}

// Scan reads r line by line and calls fn for every billable event.
//
// Blank lines, malformed lines and lines without billable usage are
// counted and skipped. Lines have no length limit, and a final line
// without a trailing newline is still parsed.
//
// Returns the accumulated statistics and the first read or handler error.
func Scan(r io.Reader, fn Handler) (ScanStats, error) {
	var stats ScanStats
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			stats.Lines++
			if err := scanLine(line, &stats, fn); err != nil {
				return stats, err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("%w: line %d: %v", ErrFileRead, stats.Lines+1, readErr)
		}
	}
}

func scanLine(line []byte, stats *ScanStats, fn Handler) error {
	if len(bytes.TrimSpace(line)) == 0 {
		stats.Blank++
		return nil
	}

	ev, err := ParseLine(line)
	if err != nil {
		stats.Malformed++
		return nil
	}

	if err := ev.Validate(); err != nil {
		stats.Skipped++
		return nil
	}

	stats.Events++
	return fn(ev)
}

// ParseFile opens path and scans it with fn.
//
// Open and read failures wrap ErrFileRead. Events handed to fn before a
// read failure are not retracted.
func ParseFile(path string, fn Handler) (ScanStats, error) {
	// #nosec G304: path comes from directory discovery
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return ScanStats{}, fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	defer func() {
		_ = f.Close() // read-only handle
	}()

	return Scan(f, fn)
}

// ReadFile parses path and returns its billable events in line order.
func ReadFile(path string) ([]Event, ScanStats, error) {
	events := make([]Event, 0, 64)
	stats, err := ParseFile(path, func(ev *Event) error {
		events = append(events, *ev)
		return nil
	})
	return events, stats, err
}
