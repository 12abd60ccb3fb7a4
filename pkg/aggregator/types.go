// Package aggregator folds costed usage events into cost and token totals.
//
// A single streaming pass updates every bucket at once: grand totals,
// per-project and per-model cost, today's figures and a per-day breakdown
// over a trailing window of calendar days. The final state is taken as an
// immutable Result snapshot.
//
// Day membership is decided by string prefix: an event belongs to day
// "2024-01-15" exactly when its timestamp starts with "2024-01-15". No
// timestamp is ever parsed.
//
// Example usage:
//
//	agg := aggregator.New(aggregator.Config{
//	    Window: aggregator.NewWindow(now, 3),
//	})
//
//	for _, rec := range records {
//	    agg.Fold(rec)
//	}
//
//	res := agg.Result()
//	fmt.Printf("Total cost: %s\n", res.TotalCost.StringFixed(2))
package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/parser"
)

// Aggregator accumulates costed usage records.
type Aggregator interface {
	// Fold adds one record to every bucket it belongs to.
	//
	// Records with a cost that is not strictly positive are ignored and
	// Fold returns false; otherwise all updates are applied together and
	// Fold returns true.
	Fold(rec Record) bool

	// Result returns a snapshot of the current state.
	//
	// The snapshot shares no memory with the aggregator.
	Result() Result

	// Reset clears all aggregated data, keeping the window.
	Reset()
}

// Config contains aggregator configuration.
type Config struct {
	// Window fixes "today" and the trailing days tracked individually.
	Window Window
}

// Record is one deduplicated, costed usage event.
type Record struct {
	// Project is the name of the project directory the event came from.
	Project string

	// Model is the raw model identifier from the log.
	Model string

	// DisplayName is the pricing family name, or "" if the model is unknown.
	DisplayName string

	// Usage holds the event's token counts.
	Usage parser.Usage

	// Cost is the event's monetary cost.
	Cost decimal.Decimal

	// Timestamp is the raw ISO-8601 timestamp string.
	Timestamp string
}

// TokenCounts holds totals for the four token classes.
type TokenCounts struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheWrite int64 `json:"cache_write"`
	CacheRead  int64 `json:"cache_read"`
}

// Add adds the counts of usage.
func (t *TokenCounts) Add(usage parser.Usage) {
	t.Input += usage.InputTokens
	t.Output += usage.OutputTokens
	t.CacheWrite += usage.CacheCreationInputTokens
	t.CacheRead += usage.CacheReadInputTokens
}

// Total returns the sum over all token classes.
func (t TokenCounts) Total() int64 {
	return t.Input + t.Output + t.CacheWrite + t.CacheRead
}

// DayBucket holds the figures of one calendar day of the trailing window.
type DayBucket struct {
	Date     string          `json:"date"`
	Cost     decimal.Decimal `json:"cost"`
	Sessions int             `json:"sessions"`
	Tokens   TokenCounts     `json:"tokens"`
}

// ScanSummary describes what ingestion did with its input.
type ScanSummary struct {
	Projects    int `json:"projects"`
	Files       int `json:"files"`
	FilesFailed int `json:"files_failed"`
	Lines       int `json:"lines"`
	Malformed   int `json:"malformed"`
	Skipped     int `json:"skipped"`
	Duplicates  int `json:"duplicates"`
	NonPositive int `json:"non_positive"`
	Counted     int `json:"counted"`
}

// Result is an immutable snapshot of aggregated usage.
//
// Invariants:
//   - TotalCost equals the sum of CostByProject.
//   - TotalCost equals the sum of CostByModel plus the cost of records
//     whose model has no pricing entry.
//   - Every counted record contributes to Tokens and Sessions.
type Result struct {
	// Today is the current calendar day, formatted 2006-01-02.
	Today string `json:"today"`

	TotalCost decimal.Decimal `json:"total_cost"`
	TodayCost decimal.Decimal `json:"today_cost"`

	CostByProject    map[string]decimal.Decimal `json:"cost_by_project"`
	CostByModel      map[string]decimal.Decimal `json:"cost_by_model"`
	TodayCostByModel map[string]decimal.Decimal `json:"today_cost_by_model"`

	// Days is the trailing window in chronological order, today last.
	Days []DayBucket `json:"days"`

	Tokens      TokenCounts `json:"tokens"`
	TodayTokens TokenCounts `json:"today_tokens"`

	// Sessions counts folded records, as the usage menu has always called them.
	Sessions      int `json:"sessions"`
	TodaySessions int `json:"today_sessions"`

	// Scan is filled in by the ingestion driver.
	Scan ScanSummary `json:"scan"`
}

// NamedCost pairs a name with a cost, for ranked listings.
type NamedCost struct {
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}
