package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/logger"
	"github.com/0xmhha/token-cost/pkg/pricing"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type usageLine struct {
	msgID, reqID, model, ts string
	in, out, cw, cr         int64
	cost                    string
}

func (u usageLine) String() string {
	var b strings.Builder
	b.WriteString(`{"type":"assistant"`)
	if u.reqID != "" {
		fmt.Fprintf(&b, `,"requestId":%q`, u.reqID)
	}
	if u.ts != "" {
		fmt.Fprintf(&b, `,"timestamp":%q`, u.ts)
	}
	if u.cost != "" {
		fmt.Fprintf(&b, `,"costUSD":%s`, u.cost)
	}
	fmt.Fprintf(&b, `,"message":{"id":%q,"model":%q,"usage":{"input_tokens":%d,"output_tokens":%d,"cache_creation_input_tokens":%d,"cache_read_input_tokens":%d}}}`,
		u.msgID, u.model, u.in, u.out, u.cw, u.cr)
	return b.String()
}

func writeLog(t *testing.T, root, project, name string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, project)
	require.NoError(t, os.MkdirAll(dir, 0700))
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func run(t *testing.T, cfg Config) aggregator.Result {
	t.Helper()
	res, err := New(cfg, logger.Noop()).Run(context.Background(), testNow)
	require.NoError(t, err)
	return res
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s = %s, want %s", msg, got, want)
}

// buildCorpus writes two projects covering every skip and count path.
func buildCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeLog(t, root, "-Users-me-api", "session.jsonl",
		usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4-20250101", ts: "2024-01-15T10:00:00Z", in: 1_000_000, out: 100_000}.String(),
		usageLine{msgID: "m2", reqID: "r2", model: "claude-opus-4-20250514", ts: "2024-01-14T23:59:59Z", in: 10, cost: "1.00"}.String(),
		`{not json`,
		``,
		`{"type":"summary","summary":"no usage here"}`,
		usageLine{msgID: "m3", reqID: "r3", model: "claude-sonnet-4", ts: "2024-01-15T11:00:00Z", cost: "5"}.String(),
	)
	writeLog(t, root, "-Users-me-web", "other.jsonl",
		usageLine{msgID: "m2", reqID: "r2", model: "claude-opus-4-20250514", ts: "2024-01-14T23:59:59Z", in: 10, cost: "1.00"}.String(),
		usageLine{msgID: "m4", model: "mystery-model", ts: "2024-01-10T09:00:00Z", out: 50, cost: "0.25"}.String(),
		usageLine{msgID: "m5", reqID: "r5", model: "mystery-model", ts: "2024-01-15T09:00:00Z", in: 500}.String(),
	)

	return root
}

func TestRunCorpus(t *testing.T) {
	res := run(t, Config{Root: buildCorpus(t), WindowDays: 3})

	assert.Equal(t, "2024-01-15", res.Today)
	assertDec(t, "5.75", res.TotalCost, "TotalCost")
	assertDec(t, "4.5", res.TodayCost, "TodayCost")

	require.Len(t, res.CostByProject, 2)
	assertDec(t, "5.5", res.CostByProject["-Users-me-api"], "api project")
	assertDec(t, "0.25", res.CostByProject["-Users-me-web"], "web project")

	require.Len(t, res.CostByModel, 2, "unknown models stay out of cost_by_model")
	assertDec(t, "4.5", res.CostByModel["Sonnet 4"], "Sonnet 4")
	assertDec(t, "1", res.CostByModel["Opus 4"], "Opus 4")
	require.Len(t, res.TodayCostByModel, 1)
	assertDec(t, "4.5", res.TodayCostByModel["Sonnet 4"], "today Sonnet 4")

	assert.Equal(t, 3, res.Sessions)
	assert.Equal(t, 1, res.TodaySessions)
	assert.Equal(t, aggregator.TokenCounts{Input: 1_000_010, Output: 100_050}, res.Tokens)
	assert.Equal(t, aggregator.TokenCounts{Input: 1_000_000, Output: 100_000}, res.TodayTokens)

	require.Len(t, res.Days, 3)
	assert.Equal(t, "2024-01-13", res.Days[0].Date)
	assert.True(t, res.Days[0].Cost.IsZero())
	assert.Equal(t, "2024-01-14", res.Days[1].Date)
	assertDec(t, "1", res.Days[1].Cost, "2024-01-14 cost")
	assert.Equal(t, 1, res.Days[1].Sessions)
	assert.Equal(t, "2024-01-15", res.Days[2].Date)
	assertDec(t, "4.5", res.Days[2].Cost, "2024-01-15 cost")

	assert.Equal(t, Stats{
		Projects:    2,
		Files:       2,
		Lines:       9,
		Malformed:   1,
		Skipped:     2,
		Duplicates:  1,
		NonPositive: 1,
		Counted:     3,
	}, res.Scan)
}

func TestRunProjectTotalsMatchTotal(t *testing.T) {
	res := run(t, Config{Root: buildCorpus(t), WindowDays: 3})

	sum := decimal.Zero
	for _, c := range res.CostByProject {
		sum = sum.Add(c)
	}
	assert.True(t, sum.Equal(res.TotalCost), "sum(cost_by_project) = %s, total = %s", sum, res.TotalCost)

	models := decimal.Zero
	for _, c := range res.CostByModel {
		models = models.Add(c)
	}
	// The unknown model's override cost is the only difference.
	assert.True(t, res.TotalCost.Sub(models).Equal(dec("0.25")))
}

func TestRunDuplicateAcrossProjects(t *testing.T) {
	root := t.TempDir()
	line := usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4", ts: "2024-01-15T01:00:00Z", in: 1, cost: "1.00"}.String()
	writeLog(t, root, "a", "one.jsonl", line)
	writeLog(t, root, "b", "two.jsonl", line)

	res := run(t, Config{Root: root})

	assertDec(t, "1", res.TotalCost, "TotalCost")
	assert.Equal(t, 1, res.Sessions)
	assert.Equal(t, 1, res.Scan.Duplicates)
	assert.Contains(t, res.CostByProject, "a")
	assert.NotContains(t, res.CostByProject, "b")
}

func TestRunMissingIDsNeverDeduplicated(t *testing.T) {
	root := t.TempDir()
	line := usageLine{msgID: "m1", model: "claude-sonnet-4", ts: "2024-01-15T01:00:00Z", in: 1, cost: "1.00"}.String()
	writeLog(t, root, "a", "one.jsonl", line, line)

	res := run(t, Config{Root: root})

	assertDec(t, "2", res.TotalCost, "TotalCost")
	assert.Equal(t, 0, res.Scan.Duplicates)
}

func TestRunNonPositiveCostConsumesKey(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "a", "one.jsonl",
		usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4", in: 10, cost: "0"}.String(),
		usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4", in: 10, cost: "2.00"}.String(),
	)

	res := run(t, Config{Root: root})

	assert.True(t, res.TotalCost.IsZero())
	assert.Equal(t, 1, res.Scan.NonPositive)
	assert.Equal(t, 1, res.Scan.Duplicates)
}

func TestRunMistypedFieldsStillCounted(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "a", "one.jsonl",
		`{"requestId":123,"timestamp":"2024-01-15T01:00:00Z","message":{"id":"m1","model":"claude-sonnet-4","usage":{"input_tokens":1000000}}}`,
		`{"requestId":"r2","timestamp":"2024-01-15T02:00:00Z","message":{"id":"m2","model":"claude-sonnet-4","usage":{"input_tokens":1000000.0}}}`,
		`{"requestId":"r3","timestamp":1705280400,"costUSD":"n/a","message":{"id":"m3","model":"claude-sonnet-4","usage":{"input_tokens":1000000,"output_tokens":"many"}}}`,
		// Same numeric request id as the first line.
		`{"requestId":123,"message":{"id":"m1","model":"claude-sonnet-4","usage":{"input_tokens":1000000}}}`,
	)

	res := run(t, Config{Root: root})

	assertDec(t, "9", res.TotalCost, "TotalCost")
	assertDec(t, "6", res.TodayCost, "TodayCost")
	assert.Equal(t, 3, res.Scan.Counted)
	assert.Equal(t, 0, res.Scan.Malformed)
	assert.Equal(t, 1, res.Scan.Duplicates)
	assert.Equal(t, aggregator.TokenCounts{Input: 3_000_000}, res.Tokens)
}

func TestRunZeroUsageDoesNotConsumeKey(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "a", "one.jsonl",
		usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4", cost: "9.00"}.String(),
		usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4", in: 10, cost: "2.00"}.String(),
	)

	res := run(t, Config{Root: root})

	assertDec(t, "2", res.TotalCost, "TotalCost")
	assert.Equal(t, 1, res.Scan.Skipped)
	assert.Equal(t, 0, res.Scan.Duplicates)
}

func TestRunOverrideTrustedVerbatim(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "a", "one.jsonl",
		usageLine{msgID: "m1", reqID: "r1", model: "claude-sonnet-4", in: 1_000_000, cost: "0.0000001"}.String(),
	)

	res := run(t, Config{Root: root})

	assertDec(t, "0.0000001", res.TotalCost, "TotalCost")
	assertDec(t, "0.0000001", res.CostByModel["Sonnet 4"], "Sonnet 4")
}

func TestRunCustomPricing(t *testing.T) {
	root := t.TempDir()
	writeLog(t, root, "a", "one.jsonl",
		usageLine{msgID: "m1", reqID: "r1", model: "in-house-llm", in: 2_000_000}.String(),
	)

	table := pricing.MustTable(pricing.Rule{
		Match: "in-house",
		Entry: pricing.Entry{Name: "In-house", Input: dec("0.5")},
	})
	res := run(t, Config{Root: root, Pricing: table})

	assertDec(t, "1", res.CostByModel["In-house"], "In-house")
}

func TestRunMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")
	d := New(Config{Root: root}, logger.Noop())

	res, err := d.Run(context.Background(), testNow)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
	assert.Equal(t, "projects directory not found: "+root, err.Error())
	assert.True(t, res.Empty())
	assert.Nil(t, res.CostByProject)
}

func TestRunEmptyRoot(t *testing.T) {
	res := run(t, Config{Root: t.TempDir(), WindowDays: 2})

	assert.True(t, res.Empty())
	assert.Len(t, res.Days, 2)
	assert.Equal(t, 0, res.Scan.Files)
}

func TestRunUnreadableFileSkipped(t *testing.T) {
	root := buildCorpus(t)
	dir := filepath.Join(root, "-Users-me-broken")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "bad.jsonl")))

	res := run(t, Config{Root: root, WindowDays: 3})

	assertDec(t, "5.75", res.TotalCost, "TotalCost")
	assert.Equal(t, 3, res.Scan.Files)
	assert.Equal(t, 1, res.Scan.FilesFailed)
	assert.Equal(t, 3, res.Scan.Projects)
}

func TestRunIdempotent(t *testing.T) {
	root := buildCorpus(t)
	cfg := Config{Root: root, WindowDays: 3}

	first, err := json.Marshal(run(t, cfg))
	require.NoError(t, err)
	second, err := json.Marshal(run(t, cfg))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestRunParallelMatchesSequential(t *testing.T) {
	root := t.TempDir()
	for p := 0; p < 4; p++ {
		for f := 0; f < 5; f++ {
			var lines []string
			for i := 0; i < 20; i++ {
				// Every id pair appears in two projects so dedup order matters.
				id := fmt.Sprintf("m%d-%d", f, i)
				lines = append(lines, usageLine{
					msgID: id,
					reqID: fmt.Sprintf("r%d", p%2),
					model: "claude-sonnet-4",
					ts:    fmt.Sprintf("2024-01-%02dT10:00:00Z", 13+i%3),
					in:    int64(1000 * (i + 1)),
					out:   int64(100 * (p + 1)),
				}.String())
			}
			writeLog(t, root, fmt.Sprintf("project-%d", p), fmt.Sprintf("s%d.jsonl", f), lines...)
		}
	}

	sequential, err := json.Marshal(run(t, Config{Root: root, WindowDays: 3, Workers: 1}))
	require.NoError(t, err)
	parallel, err := json.Marshal(run(t, Config{Root: root, WindowDays: 3, Workers: 4}))
	require.NoError(t, err)

	assert.JSONEq(t, string(sequential), string(parallel))
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := New(Config{Root: buildCorpus(t), Workers: workers}, logger.Noop()).Run(ctx, testNow)
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}
