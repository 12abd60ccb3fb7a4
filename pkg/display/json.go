package display

import (
	"encoding/json"
	"io"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/aggregator"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// jsonReport is the JSON document: the result plus derived values.
// Decimals are encoded as strings so no precision is lost.
type jsonReport struct {
	aggregator.Result

	AverageCost  decimal.Decimal        `json:"average_cost"`
	ProjectNames map[string]string      `json:"project_names"`
	TopProjects  []aggregator.NamedCost `json:"top_projects"`
}

// FormatResult implements Formatter.FormatResult.
func (f *jsonFormatter) FormatResult(w io.Writer, res aggregator.Result) error {
	names := make(map[string]string, len(res.CostByProject))
	for p := range res.CostByProject {
		names[p] = f.config.Names.Name(p)
	}

	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(jsonReport{
		Result:       res,
		AverageCost:  res.AverageCost(),
		ProjectNames: names,
		TopProjects:  res.TopProjects(f.config.TopProjects),
	})
}
