package pricing

import "github.com/shopspring/decimal"

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	opus4   = Entry{Name: "Opus 4", Input: rate("15"), Output: rate("75"), CacheWrite: rate("18.75"), CacheRead: rate("1.50")}
	sonnet4 = Entry{Name: "Sonnet 4", Input: rate("3"), Output: rate("15"), CacheWrite: rate("3.75"), CacheRead: rate("0.30")}
)

// defaultRules is the built-in rate card. Newer, more specific keys come
// first so they are not shadowed by the family keys below them.
var defaultRules = []Rule{
	{Match: "opus-4-5", Entry: Entry{Name: "Opus 4.5", Input: rate("5"), Output: rate("25"), CacheWrite: rate("6.25"), CacheRead: rate("0.50")}},
	{Match: "haiku-4-5", Entry: Entry{Name: "Haiku 4.5", Input: rate("1"), Output: rate("5"), CacheWrite: rate("1.25"), CacheRead: rate("0.10")}},
	{Match: "sonnet-4-5", Entry: Entry{Name: "Sonnet 4.5", Input: rate("3"), Output: rate("15"), CacheWrite: rate("3.75"), CacheRead: rate("0.30")}},
	{Match: "opus-4-1", Entry: Entry{Name: "Opus 4.1", Input: rate("15"), Output: rate("75"), CacheWrite: rate("18.75"), CacheRead: rate("1.50")}},

	{Match: "opus-4", Entry: opus4},
	{Match: "sonnet-4", Entry: sonnet4},
	{Match: "claude-4-opus", Entry: opus4},
	{Match: "claude-4-sonnet", Entry: sonnet4},
	{Match: "claude-opus-4", Entry: opus4},
	{Match: "claude-sonnet-4", Entry: sonnet4},

	{Match: "3-7-sonnet", Entry: Entry{Name: "Sonnet 3.7", Input: rate("3"), Output: rate("15"), CacheWrite: rate("3.75"), CacheRead: rate("0.30")}},
	{Match: "3-5-sonnet", Entry: Entry{Name: "Sonnet 3.5", Input: rate("3"), Output: rate("15"), CacheWrite: rate("3.75"), CacheRead: rate("0.30")}},
	{Match: "3-5-haiku", Entry: Entry{Name: "Haiku 3.5", Input: rate("0.80"), Output: rate("4"), CacheWrite: rate("1"), CacheRead: rate("0.08")}},
	{Match: "3-opus", Entry: Entry{Name: "Opus 3", Input: rate("15"), Output: rate("75"), CacheWrite: rate("18.75"), CacheRead: rate("1.50")}},
	{Match: "3-haiku", Entry: Entry{Name: "Haiku 3", Input: rate("0.25"), Output: rate("1.25"), CacheWrite: rate("0.30"), CacheRead: rate("0.03")}},
}

// Default returns the built-in pricing table.
func Default() *Table {
	return MustTable(defaultRules...)
}
