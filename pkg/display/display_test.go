package display

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/project"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleResult() aggregator.Result {
	return aggregator.Result{
		Today:     "2024-01-15",
		TotalCost: dec("12.3456"),
		TodayCost: dec("4.5"),
		CostByProject: map[string]decimal.Decimal{
			"-Users-me-api": dec("8"),
			"-Users-me-web": dec("2.3456"),
			"_a_b_tools":    dec("1"),
			"scratch":       dec("0.5"),
			"notes":         dec("0.25"),
			"misc":          dec("0.25"),
		},
		CostByModel: map[string]decimal.Decimal{
			"Sonnet 4": dec("10"),
			"Opus 4":   dec("2.3456"),
		},
		TodayCostByModel: map[string]decimal.Decimal{"Sonnet 4": dec("4.5")},
		Days: []aggregator.DayBucket{
			{Date: "2024-01-14", Cost: dec("1"), Sessions: 1},
			{Date: "2024-01-15", Cost: dec("4.5"), Sessions: 2, Tokens: aggregator.TokenCounts{Input: 1_000_000, Output: 100_000}},
		},
		Tokens:        aggregator.TokenCounts{Input: 1_234_567, Output: 100_000, CacheWrite: 2_500, CacheRead: 999},
		TodayTokens:   aggregator.TokenCounts{Input: 1_000_000, Output: 100_000},
		Sessions:      4,
		TodaySessions: 2,
		Scan:          aggregator.ScanSummary{Projects: 6, Files: 9, Counted: 4, Duplicates: 1, FilesFailed: 1},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string // Type name
	}{
		{name: "default format (table)", config: Config{}, want: "*display.tableFormatter"},
		{name: "table format", config: Config{Format: FormatTable}, want: "*display.tableFormatter"},
		{name: "json format", config: Config{Format: FormatJSON}, want: "*display.jsonFormatter"},
		{name: "simple format", config: Config{Format: FormatSimple}, want: "*display.simpleFormatter"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := fmt.Sprintf("%T", New(tt.config))
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, " simple ": FormatSimple} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("live"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("ParseFormat(live) error = %v, want ErrInvalidFormat", err)
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	currency := map[string]string{
		"0":       "$0.00",
		"4.5":     "$4.50",
		"12.3456": "$12.35",
		"0.004":   "$0.00",
	}
	for in, want := range currency {
		if got := FormatCurrency(dec(in)); got != want {
			t.Errorf("FormatCurrency(%s) = %q, want %q", in, got, want)
		}
	}

	tokens := map[int64]string{
		0:         "0",
		999:       "999",
		1_000:     "1.0K",
		2_500:     "2.5K",
		1_234_567: "1.2M",
		1_000_000: "1.0M",
	}
	for in, want := range tokens {
		if got := FormatTokens(in); got != want {
			t.Errorf("FormatTokens(%d) = %q, want %q", in, got, want)
		}
	}

	numbers := map[int64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		1_234_567: "1,234,567",
		-12345:    "-12,345",
	}
	for in, want := range numbers {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestBar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cost, top string
		width     int
		want      string
	}{
		{cost: "10", top: "10", width: 4, want: "████"},
		{cost: "5", top: "10", width: 4, want: "██░░"},
		{cost: "1", top: "10", width: 4, want: "░░░░"},
		{cost: "1", top: "0", width: 3, want: "░░░"},
	}

	for _, tt := range tests {
		if got := bar(dec(tt.cost), dec(tt.top), tt.width); got != tt.want {
			t.Errorf("bar(%s, %s, %d) = %q, want %q", tt.cost, tt.top, tt.width, got, tt.want)
		}
	}
}

func TestHeadline(t *testing.T) {
	t.Parallel()

	res := aggregator.Result{TotalCost: dec("10"), TodayCost: dec("1")}
	if got := Headline(res); got != "$10.00" {
		t.Errorf("Headline() = %q, want $10.00 when today is not above $1", got)
	}

	res.TodayCost = dec("1.01")
	if got := Headline(res); got != "$10.00 (+$1.01)" {
		t.Errorf("Headline() = %q, want $10.00 (+$1.01)", got)
	}
}

func TestTableFormatter_FormatResult(t *testing.T) {
	t.Parallel()

	names := project.NewResolver([]*project.Alias{{Project: "scratch", Name: "playground"}})
	f := New(Config{Format: FormatTable, Width: 120, BarWidth: 10, Names: names})

	var buf bytes.Buffer
	if err := f.FormatResult(&buf, sampleResult()); err != nil {
		t.Fatalf("FormatResult() error = %v", err)
	}
	output := buf.String()

	expected := []string{
		"Overview",
		"$12.35",
		"$3.09/session",
		"Today (2024-01-15)",
		"$4.50",
		"Token Usage",
		"1.2M",
		"1,234,567",
		"By Model",
		"Sonnet 4",
		"81.0%",
		"██████████",
		"Top Projects",
		"api",
		"web",
		"tools",
		"playground",
		"...and 1 more",
		"Daily",
		"2024-01-14",
		"Scanned 9 files in 6 projects",
		"1 unreadable files",
	}
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			t.Errorf("Output missing %q\n%s", exp, output)
		}
	}

	if strings.Contains(output, "-Users-me-api") {
		t.Error("Output shows raw project directory name")
	}
}

func TestTableFormatter_Compact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable, Width: 120, Compact: true}).FormatResult(&buf, sampleResult()); err != nil {
		t.Fatalf("FormatResult() error = %v", err)
	}

	if strings.Contains(buf.String(), "Daily") || strings.Contains(buf.String(), "Scanned") {
		t.Error("Compact output includes daily or scan sections")
	}
}

func TestTextFormatters_Empty(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatTable, FormatSimple} {
		var buf bytes.Buffer
		if err := New(Config{Format: format, Width: 80}).FormatResult(&buf, aggregator.Result{}); err != nil {
			t.Fatalf("%s FormatResult() error = %v", format, err)
		}
		if !strings.Contains(buf.String(), "No Claude usage found") {
			t.Errorf("%s output = %q, want no-usage message", format, buf.String())
		}
		if !strings.Contains(buf.String(), "$0.00") {
			t.Errorf("%s output = %q, want $0.00", format, buf.String())
		}
	}
}

func TestJSONFormatter_FormatResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatJSON, TopProjects: 2}).FormatResult(&buf, sampleResult()); err != nil {
		t.Fatalf("FormatResult() error = %v", err)
	}

	var doc struct {
		TotalCost    string            `json:"total_cost"`
		AverageCost  string            `json:"average_cost"`
		CostByModel  map[string]string `json:"cost_by_model"`
		ProjectNames map[string]string `json:"project_names"`
		TopProjects  []struct {
			Name string `json:"name"`
		} `json:"top_projects"`
		Days []struct {
			Date string `json:"date"`
		} `json:"days"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Failed to parse JSON: %v\n%s", err, buf.String())
	}

	if doc.TotalCost != "12.3456" {
		t.Errorf("total_cost = %q, want exact 12.3456", doc.TotalCost)
	}
	if doc.AverageCost != "3.0864" {
		t.Errorf("average_cost = %q, want 3.0864", doc.AverageCost)
	}
	if doc.CostByModel["Opus 4"] != "2.3456" {
		t.Errorf("cost_by_model[Opus 4] = %q", doc.CostByModel["Opus 4"])
	}
	if doc.ProjectNames["-Users-me-api"] != "api" {
		t.Errorf("project_names = %v", doc.ProjectNames)
	}
	if len(doc.TopProjects) != 2 || doc.TopProjects[0].Name != "-Users-me-api" {
		t.Errorf("top_projects = %+v", doc.TopProjects)
	}
	if len(doc.Days) != 2 {
		t.Errorf("days = %+v", doc.Days)
	}
}

func TestSimpleFormatter_FormatResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatSimple, TopProjects: 1}).FormatResult(&buf, sampleResult()); err != nil {
		t.Fatalf("FormatResult() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "$12.35 (+$4.50)" {
		t.Errorf("headline = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Sessions: 4") {
		t.Errorf("summary = %q", lines[1])
	}
	if lines[2] != "api: $8.00" {
		t.Errorf("project line = %q", lines[2])
	}
}

func TestJSONFormatter_TopProjectKeys(t *testing.T) {
	var buf bytes.Buffer
	f := New(Config{Format: FormatJSON, Width: 80})
	if err := f.FormatResult(&buf, sampleResult()); err != nil {
		t.Fatalf("FormatResult() error = %v", err)
	}

	var doc struct {
		TopProjects []map[string]json.RawMessage `json:"top_projects"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(doc.TopProjects) == 0 {
		t.Fatal("top_projects is empty")
	}
	for _, p := range doc.TopProjects {
		if _, ok := p["name"]; !ok {
			t.Errorf("top_projects entry %v has no \"name\" key", p)
		}
		if _, ok := p["cost"]; !ok {
			t.Errorf("top_projects entry %v has no \"cost\" key", p)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, []string{"Project", "Files"}, [][]string{
		{"api", "3"},
		{"web", "12"},
	}, 1)
	if err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"api", "web", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
