package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/parser"
)

// NewTable builds a table from rules, preserving their order.
//
// Match keys are lower-cased. Returns an error if any rule is invalid.
func NewTable(rules ...Rule) (*Table, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		match := strings.ToLower(strings.TrimSpace(r.Match))
		if match == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyMatch)
		}
		if r.Entry.Name == "" {
			return nil, fmt.Errorf("rule %d (%s): %w", i, match, ErrEmptyName)
		}
		for _, rate := range []decimal.Decimal{r.Entry.Input, r.Entry.Output, r.Entry.CacheWrite, r.Entry.CacheRead} {
			if rate.IsNegative() {
				return nil, fmt.Errorf("rule %d (%s): %w", i, match, ErrNegativeRate)
			}
		}
		out = append(out, Rule{Match: match, Entry: r.Entry})
	}
	return &Table{rules: out}, nil
}

// MustTable is like NewTable but panics on invalid rules.
// It is intended for statically authored tables.
func MustTable(rules ...Rule) *Table {
	t, err := NewTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the entry of the first rule whose key is contained in model.
//
// Matching is case-insensitive. An empty model never matches.
func (t *Table) Lookup(model string) (Entry, bool) {
	if t == nil || model == "" {
		return Entry{}, false
	}

	lower := strings.ToLower(model)
	for _, r := range t.rules {
		if strings.Contains(lower, r.Match) {
			return r.Entry, true
		}
	}
	return Entry{}, false
}

// Rules returns a copy of the table's rules in match order.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Cost computes the cost of usage for model.
//
// Unknown models cost exactly zero.
func (t *Table) Cost(model string, usage parser.Usage) decimal.Decimal {
	entry, ok := t.Lookup(model)
	if !ok {
		return decimal.Zero
	}
	return entry.Cost(usage)
}

// Cost computes Σ count*rate over the four token classes, divided by one
// million. The division is a decimal shift, so the result is exact.
func (e Entry) Cost(usage parser.Usage) decimal.Decimal {
	sum := decimal.NewFromInt(usage.InputTokens).Mul(e.Input).
		Add(decimal.NewFromInt(usage.OutputTokens).Mul(e.Output)).
		Add(decimal.NewFromInt(usage.CacheCreationInputTokens).Mul(e.CacheWrite)).
		Add(decimal.NewFromInt(usage.CacheReadInputTokens).Mul(e.CacheRead))
	return sum.Shift(-6)
}

// RuleSpec is the textual form of a rule, as found in configuration files.
type RuleSpec struct {
	Match      string
	Name       string
	Input      string
	Output     string
	CacheWrite string
	CacheRead  string
}

// FromSpecs parses textual rules into a table. Empty rates are zero.
func FromSpecs(specs []RuleSpec) (*Table, error) {
	rules := make([]Rule, 0, len(specs))
	for i, s := range specs {
		var rates [4]decimal.Decimal
		for j, raw := range []string{s.Input, s.Output, s.CacheWrite, s.CacheRead} {
			if strings.TrimSpace(raw) == "" {
				rates[j] = decimal.Zero
				continue
			}
			d, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): %w: %q", i, s.Match, ErrInvalidRate, raw)
			}
			rates[j] = d
		}
		rules = append(rules, Rule{
			Match: s.Match,
			Entry: Entry{
				Name:       s.Name,
				Input:      rates[0],
				Output:     rates[1],
				CacheWrite: rates[2],
				CacheRead:  rates[3],
			},
		})
	}
	return NewTable(rules...)
}
