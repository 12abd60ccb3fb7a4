package display

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/aggregator"
)

// tableFormatter formats output as sectioned tables.
type tableFormatter struct {
	config Config
}

// FormatResult implements Formatter.FormatResult.
func (f *tableFormatter) FormatResult(w io.Writer, res aggregator.Result) error {
	if res.Empty() {
		_, err := fmt.Fprintf(w, "%s\n%s\n", FormatCurrency(res.TotalCost), noUsage)
		return err
	}

	sections := []func(io.Writer, aggregator.Result) error{
		f.overview,
		f.today,
		f.tokens,
		f.models,
		f.projects,
	}
	if !f.config.Compact {
		sections = append(sections, f.days, f.scan)
	}

	for _, section := range sections {
		if err := section(w, res); err != nil {
			return err
		}
	}
	return nil
}

func (f *tableFormatter) overview(w io.Writer, res aggregator.Result) error {
	if err := writeHeader(w, "Overview", f.config.Compact); err != nil {
		return err
	}
	return f.writeTable(w, nil, [][]string{
		{"Total Cost", FormatCurrency(res.TotalCost)},
		{"Sessions", formatNumber(int64(res.Sessions))},
		{"Average", FormatCurrency(res.AverageCost()) + "/session"},
	}, 1)
}

func (f *tableFormatter) today(w io.Writer, res aggregator.Result) error {
	if !res.TodayCost.IsPositive() {
		return nil
	}
	if err := writeHeader(w, "Today ("+res.Today+")", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Cost", FormatCurrency(res.TodayCost)},
		{"Sessions", formatNumber(int64(res.TodaySessions))},
		{"Tokens", FormatTokens(res.TodayTokens.Total())},
	}
	for _, m := range ranked(res.TodayCostByModel) {
		rows = append(rows, []string{"  " + m.Name, FormatCurrency(m.Cost)})
	}
	return f.writeTable(w, nil, rows, 1)
}

func (f *tableFormatter) tokens(w io.Writer, res aggregator.Result) error {
	if err := writeHeader(w, "Token Usage", f.config.Compact); err != nil {
		return err
	}
	t := res.Tokens
	return f.writeTable(w, []string{"Class", "Tokens", "Exact"}, [][]string{
		{"Input", FormatTokens(t.Input), formatNumber(t.Input)},
		{"Output", FormatTokens(t.Output), formatNumber(t.Output)},
		{"Cache Write", FormatTokens(t.CacheWrite), formatNumber(t.CacheWrite)},
		{"Cache Read", FormatTokens(t.CacheRead), formatNumber(t.CacheRead)},
		{"Total", FormatTokens(t.Total()), formatNumber(t.Total())},
	}, 1)
}

func (f *tableFormatter) models(w io.Writer, res aggregator.Result) error {
	models := res.ModelsByCost()
	if len(models) == 0 {
		return nil
	}
	if err := writeHeader(w, "By Model", f.config.Compact); err != nil {
		return err
	}

	top := models[0].Cost
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			m.Name,
			FormatCurrency(m.Cost),
			formatShare(res.Share(m.Cost)),
			bar(m.Cost, top, f.config.BarWidth),
		})
	}
	return f.writeTable(w, []string{"Model", "Cost", "Share", ""}, rows, 1, 2)
}

func (f *tableFormatter) projects(w io.Writer, res aggregator.Result) error {
	if len(res.CostByProject) == 0 {
		return nil
	}
	if err := writeHeader(w, "Top Projects", f.config.Compact); err != nil {
		return err
	}

	top := res.TopProjects(f.config.TopProjects)
	rows := make([][]string, 0, len(top))
	for _, p := range top {
		rows = append(rows, []string{f.config.Names.Name(p.Name), FormatCurrency(p.Cost)})
	}
	if err := f.writeTable(w, []string{"Project", "Cost"}, rows, 1); err != nil {
		return err
	}

	if more := len(res.CostByProject) - len(top); more > 0 {
		_, err := fmt.Fprintf(w, "...and %d more\n", more)
		return err
	}
	return nil
}

func (f *tableFormatter) days(w io.Writer, res aggregator.Result) error {
	if len(res.Days) == 0 {
		return nil
	}
	if err := writeHeader(w, "Daily", f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, 0, len(res.Days))
	for _, d := range res.Days {
		rows = append(rows, []string{
			d.Date,
			FormatCurrency(d.Cost),
			formatNumber(int64(d.Sessions)),
			FormatTokens(d.Tokens.Total()),
		})
	}
	return f.writeTable(w, []string{"Date", "Cost", "Sessions", "Tokens"}, rows, 1, 2, 3)
}

func (f *tableFormatter) scan(w io.Writer, res aggregator.Result) error {
	s := res.Scan
	_, err := fmt.Fprintf(w, "\nScanned %d files in %d projects: %d counted, %d duplicates, %d malformed lines",
		s.Files, s.Projects, s.Counted, s.Duplicates, s.Malformed)
	if err != nil {
		return err
	}
	if s.FilesFailed > 0 {
		if _, err := fmt.Fprintf(w, ", %d unreadable files", s.FilesFailed); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}

func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string, right ...int) error {
	return WriteTable(w, header, rows, right...)
}

// WriteTable renders rows as a borderless table. Columns listed in right
// are right-aligned.
func WriteTable(w io.Writer, header []string, rows [][]string, right ...int) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})))

	columns := len(header)
	if columns == 0 && len(rows) > 0 {
		columns = len(rows[0])
	}
	alignments := make([]tw.Align, columns)
	for i := range alignments {
		alignments[i] = tw.AlignLeft
	}
	for _, i := range right {
		if i < columns {
			alignments[i] = tw.AlignRight
		}
	}
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = alignments
	})

	if len(header) > 0 {
		table.Header(header)
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// ranked orders a cost map like Result.ModelsByCost does.
func ranked(m map[string]decimal.Decimal) []aggregator.NamedCost {
	return aggregator.Result{CostByModel: m}.ModelsByCost()
}
