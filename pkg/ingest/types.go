// Package ingest drives one aggregation run over a Claude Code projects
// directory: discovery, parsing, deduplication, costing and folding.
//
// A run owns its deduplication set and aggregator; nothing is shared
// between runs, so running twice over the same files with the same "now"
// yields identical results.
//
// Example usage:
//
//	d := ingest.New(ingest.Config{
//	    Root:       "~/.claude/projects",
//	    WindowDays: 3,
//	}, log)
//	res, err := d.Run(ctx, time.Now())
//	if errors.Is(err, ingest.ErrSourceNotFound) {
//	    fmt.Println("projects directory not found")
//	}
package ingest

import (
	"context"
	"time"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/pricing"
)

// Driver runs complete aggregation passes.
type Driver interface {
	// Run scans every log file under the root and returns the aggregate.
	//
	// now fixes "today" and the trailing window; it is never read from the
	// clock inside the run.
	//
	// Returns ErrSourceNotFound (wrapped) if the root does not exist, in
	// which case no result is produced. Unreadable files and malformed
	// lines are counted in Result.Scan and skipped.
	Run(ctx context.Context, now time.Time) (aggregator.Result, error)
}

// Config contains driver configuration.
type Config struct {
	// Root is the projects directory. A leading ~ is expanded.
	Root string

	// WindowDays is the number of trailing calendar days tracked
	// individually, today included. Values below 1 are treated as 1.
	WindowDays int

	// Workers is the number of files parsed concurrently. Values below 1
	// are treated as 1.
	Workers int

	// Pricing is the rate card. Nil means pricing.Default().
	Pricing *pricing.Table
}

// Stats counts what a run did with its input.
type Stats = aggregator.ScanSummary
