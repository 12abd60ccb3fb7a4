package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"github.com/0xmhha/token-cost/pkg/project"
)

const (
	defaultTopProjects = 5
	defaultBarWidth    = 20
	narrowBarWidth     = 10
	narrowTerminal     = 60
	fallbackWidth      = 80
)

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
	if cfg.TopProjects <= 0 {
		cfg.TopProjects = defaultTopProjects
	}
	if cfg.Width <= 0 {
		cfg.Width = TerminalWidth()
	}
	if cfg.BarWidth <= 0 {
		cfg.BarWidth = defaultBarWidth
		if cfg.Width < narrowTerminal {
			cfg.BarWidth = narrowBarWidth
		}
	}
	if cfg.Names == nil {
		cfg.Names = (*project.Resolver)(nil)
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatSimple:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// TerminalWidth returns the width of stdout, or 80 when stdout is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// FormatCurrency formats an amount in dollars rounded to cents.
func FormatCurrency(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatTokens abbreviates a token count with K and M suffixes.
func FormatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return decimal.NewFromInt(n).Shift(-6).StringFixed(1) + "M"
	case n >= 1_000:
		return decimal.NewFromInt(n).Shift(-3).StringFixed(1) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FormatBytes formats a size with binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatNumber formats a number with thousand separators.
func FormatNumber(n int64) string {
	return formatNumber(n)
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}

	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// formatShare formats a percentage with one decimal.
func formatShare(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}

// bar draws cost relative to top as a bar of width cells.
func bar(cost, top decimal.Decimal, width int) string {
	filled := 0
	if top.IsPositive() {
		filled = int(cost.Mul(decimal.NewFromInt(int64(width))).Div(top).IntPart())
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
	return err
}

// noUsage is printed by the text formats for an empty result.
const noUsage = "No Claude usage found"
