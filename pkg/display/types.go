// Package display renders aggregation results for the terminal.
//
// It supports multiple output formats (table, JSON, simple text). Currency
// is rounded to cents only here; aggregates stay exact until printed.
package display

import (
	"io"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/project"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays results as sectioned tables.
	FormatTable Format = "table"

	// FormatJSON displays results as JSON with exact decimal strings.
	FormatJSON Format = "json"

	// FormatSimple displays a one-line headline and a short summary.
	FormatSimple Format = "simple"
)

// Formatter formats an aggregation result.
type Formatter interface {
	// FormatResult writes res to w.
	//
	// An empty result is reported as "No Claude usage found" by the text
	// formats and as a zero-valued document by JSON.
	FormatResult(w io.Writer, res aggregator.Result) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// TopProjects is the number of projects listed before "...and N more".
	// Default: 5.
	TopProjects int

	// BarWidth is the length of the model cost bars.
	// Default: 20, or 10 on terminals narrower than 60 columns.
	BarWidth int

	// Width is the terminal width. Zero means detect from stdout.
	Width int

	// Names maps project directory names to display names.
	// Default: project.DisplayName.
	Names project.Namer

	// Compact omits the daily window and scan summary sections.
	// Default: false.
	Compact bool
}
