package display

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/aggregator"
)

// headlineTodayMin is the today cost above which the headline shows it.
var headlineTodayMin = decimal.NewFromInt(1)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatResult implements Formatter.FormatResult.
func (f *simpleFormatter) FormatResult(w io.Writer, res aggregator.Result) error {
	if _, err := fmt.Fprintln(w, Headline(res)); err != nil {
		return err
	}

	if res.Empty() {
		_, err := fmt.Fprintln(w, noUsage)
		return err
	}
	if f.config.Compact {
		return nil
	}

	if _, err := fmt.Fprintf(w, "Sessions: %s | Today: %s (%s sessions) | Tokens: %s\n",
		formatNumber(int64(res.Sessions)),
		FormatCurrency(res.TodayCost),
		formatNumber(int64(res.TodaySessions)),
		FormatTokens(res.Tokens.Total())); err != nil {
		return err
	}

	for _, p := range res.TopProjects(f.config.TopProjects) {
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.config.Names.Name(p.Name), FormatCurrency(p.Cost)); err != nil {
			return err
		}
	}

	return nil
}

// Headline returns the one-line summary: the total cost, followed by
// today's cost when it exceeds one dollar.
func Headline(res aggregator.Result) string {
	if res.TodayCost.GreaterThan(headlineTodayMin) {
		return fmt.Sprintf("%s (+%s)", FormatCurrency(res.TotalCost), FormatCurrency(res.TodayCost))
	}
	return FormatCurrency(res.TotalCost)
}
