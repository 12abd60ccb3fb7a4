// Package monitor keeps an aggregation result current for the watch
// command.
//
// Every update is a full recomputation through the ingest driver; the
// monitor only decides when to recompute: once at start, after each
// coalesced file change and on every refresh tick.
package monitor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/aggregator"
)

// Trigger describes why an update was computed.
type Trigger string

// Update triggers.
const (
	TriggerStart  Trigger = "start"
	TriggerChange Trigger = "change"
	TriggerTick   Trigger = "tick"
)

// Config holds the configuration for the monitor.
type Config struct {
	// RefreshInterval is the period of unconditional recomputation.
	// Default: 10s.
	RefreshInterval time.Duration

	// Now returns the current moment passed to each run.
	// Default: time.Now.
	Now func() time.Time
}

// Monitor recomputes usage on file changes and periodically.
type Monitor interface {
	// Start computes the first update synchronously, then watches in the
	// background until ctx is cancelled or Close is called.
	//
	// Returns the driver's error if the first computation fails, so a
	// missing projects directory is reported before anything is shown.
	Start(ctx context.Context) error

	// Updates returns the channel of updates. Only the latest update is
	// kept when the receiver falls behind. The channel is closed when the
	// monitor stops.
	Updates() <-chan Update

	// Close stops the monitor and the watcher it owns.
	Close() error
}

// Update is one recomputed result.
type Update struct {
	// At is when the update was computed.
	At time.Time

	// Trigger is what caused the recomputation.
	Trigger Trigger

	// Result is the fresh aggregate. It is the previous result when Err
	// is set.
	Result aggregator.Result

	// Delta is the change in total cost since the previous update.
	Delta decimal.Decimal

	// Err is set when the recomputation failed.
	Err error
}
