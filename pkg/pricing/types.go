// Package pricing provides the model rate card used to turn token usage
// into a monetary cost.
//
// A Table is an ordered list of rules. Each rule matches a lower-case
// substring of the model identifier reported in the usage logs, and the
// first matching rule wins. Order is part of the table's contract: a
// specific key such as "opus-4-5" must appear before the more general
// "opus-4" that is also a substring of it.
//
// All rates are exact decimals expressed per one million tokens.
//
// Example usage:
//
//	table := pricing.Default()
//	cost := table.Cost("claude-sonnet-4-20250514", parser.Usage{
//	    InputTokens:  1_000_000,
//	    OutputTokens: 100_000,
//	})
//	fmt.Println(cost.StringFixed(2)) // 4.50
package pricing

import (
	"github.com/shopspring/decimal"
)

// Entry is the rate card of one model family.
//
// Invariant: all rates are non-negative.
type Entry struct {
	// Name is the canonical display name of the model family (e.g. "Sonnet 4").
	Name string

	// Input is the price of one million regular input tokens.
	Input decimal.Decimal

	// Output is the price of one million generated tokens.
	Output decimal.Decimal

	// CacheWrite is the price of one million cache-creation tokens.
	CacheWrite decimal.Decimal

	// CacheRead is the price of one million cache-read tokens.
	CacheRead decimal.Decimal
}

// Rule binds a model-name substring to an entry.
type Rule struct {
	// Match is compared case-insensitively against the model identifier.
	Match string

	// Entry is returned when Match is contained in the model identifier.
	Entry Entry
}

// Table is an ordered, immutable list of pricing rules.
type Table struct {
	rules []Rule
}
