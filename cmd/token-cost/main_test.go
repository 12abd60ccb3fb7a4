package main

import (
	"bytes"
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

	"github.com/0xmhha/token-cost/pkg/config"
	"github.com/0xmhha/token-cost/pkg/ingest"
)

const (
	sonnetLine = `{"type":"assistant","requestId":"req_1","timestamp":"2024-03-10T09:15:00Z","message":{"id":"msg_1","model":"claude-sonnet-4-20250514","usage":{"input_tokens":1000000,"output_tokens":100000}}}`
	opusLine   = `{"type":"assistant","requestId":"req_2","timestamp":"2024-03-09T18:00:00Z","costUSD":1.25,"message":{"id":"msg_2","model":"claude-opus-4-20250514","usage":{"input_tokens":10,"output_tokens":10}}}`
)

// testEnv is an isolated home with a projects directory and a config file.
type testEnv struct {
	root       string
	configPath string
	dbPath     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		config.EnvProjectsDir,
		config.EnvClaudeConfigDir,
		config.EnvWindowDays,
		config.EnvDBPath,
		config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}

	env := &testEnv{
		root:       filepath.Join(home, "projects"),
		configPath: filepath.Join(home, "token-cost.yaml"),
		dbPath:     filepath.Join(home, "projects.db"),
	}
	require.NoError(t, os.MkdirAll(env.root, 0700))

	cfg := fmt.Sprintf("projects_dir: %s\nstorage:\n  db_path: %s\nlogging:\n  level: \"off\"\n",
		env.root, env.dbPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0600))

	return env
}

func (e *testEnv) writeLog(t *testing.T, project, name string, lines ...string) {
	t.Helper()
	dir := filepath.Join(e.root, project)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0600))
}

func (e *testEnv) withCorpus(t *testing.T) *testEnv {
	t.Helper()
	e.writeLog(t, "-Users-me-code-api", "a.jsonl", sonnetLine)
	e.writeLog(t, "-Users-me-code-web", "b.jsonl", opusLine)
	return e
}

func (e *testEnv) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := run(append([]string{"-config", e.configPath}, args...), &out)
	return out.String(), err
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.Equal(t, "token-cost dev\n", out.String())
}

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"help"}, &out))
	assert.Contains(t, out.String(), "Commands:")
	assert.Contains(t, out.String(), "alias")
}

func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"frobnicate"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestParseNow(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "rfc3339", in: "2024-03-10T09:15:00Z", want: "2024-03-10"},
		{name: "date only", in: "2024-03-10", want: "2024-03-10"},
		{name: "garbage", in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}

	now, err := parseNow("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)
}

func TestScanFlags_Apply(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, scanFlags{dir: "/data/projects", days: 7, workers: 4}.apply(cfg))
	assert.Equal(t, "/data/projects", cfg.ProjectsDir)
	assert.Equal(t, 7, cfg.Report.WindowDays)
	assert.Equal(t, 4, cfg.Performance.Workers)

	cfg = config.Default()
	err := scanFlags{days: -1}.apply(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidWindowDays)
}

func TestReport_JSON(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	out, err := env.run("report", "-format", "json", "-now", "2024-03-10T12:00:00Z")
	require.NoError(t, err)

	var doc struct {
		TotalCost     decimal.Decimal            `json:"total_cost"`
		TodayCost     decimal.Decimal            `json:"today_cost"`
		CostByProject map[string]decimal.Decimal `json:"cost_by_project"`
		Sessions      int                        `json:"sessions"`
		Today         string                     `json:"today"`
		ProjectNames  map[string]string          `json:"project_names"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.True(t, doc.TotalCost.Equal(decimal.RequireFromString("5.75")), "total = %s", doc.TotalCost)
	assert.True(t, doc.TodayCost.Equal(decimal.RequireFromString("4.5")), "today = %s", doc.TodayCost)
	assert.Equal(t, 2, doc.Sessions)
	assert.Equal(t, "2024-03-10", doc.Today)
	assert.Len(t, doc.CostByProject, 2)
	assert.Equal(t, "api", doc.ProjectNames["-Users-me-code-api"])
}

func TestReport_Table(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	out, err := env.run("report", "-now", "2024-03-10")
	require.NoError(t, err)

	for _, want := range []string{"Overview", "$5.75", "$4.50", "api", "web", "Scanned 2 files in 2 projects"} {
		assert.Contains(t, out, want)
	}
}

func TestReport_SimpleIsDefaultWhenConfigured(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)
	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("display:\n  format: simple\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := env.run("report", "-now", "2024-03-10")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$5.75 (+$4.50)\n"), out)
}

func TestReport_WindowFlag(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	out, err := env.run("report", "-format", "json", "-now", "2024-03-10", "-days", "1")
	require.NoError(t, err)

	var doc struct {
		Days []struct {
			Date string `json:"date"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Days, 1)
	assert.Equal(t, "2024-03-10", doc.Days[0].Date)
}

func TestReport_DoesNotCreateAliasStore(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	_, err := env.run("report", "-now", "2024-03-10")
	require.NoError(t, err)
	_, err = env.run("projects")
	require.NoError(t, err)

	_, err = os.Stat(env.dbPath)
	assert.True(t, os.IsNotExist(err), "alias database created by a read-only command: %v", err)
}

func TestReport_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("report")
	require.NoError(t, err)
	assert.Contains(t, out, "No Claude usage found")
}

func TestReport_MissingProjectsDir(t *testing.T) {
	env := newTestEnv(t)

	missing := filepath.Join(env.root, "nope")
	_, err := env.run("report", "-dir", missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingest.ErrSourceNotFound), "err = %v", err)
	assert.Equal(t, "projects directory not found: "+missing, err.Error())
}

func TestReport_InvalidFormat(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	_, err := env.run("report", "-format", "xml")
	assert.Error(t, err)
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	out, err := env.run("projects")
	require.NoError(t, err)
	assert.Contains(t, out, "-Users-me-code-api")
	assert.Contains(t, out, "-Users-me-code-web")
	assert.Contains(t, out, "2 projects, 2 files")
}

func TestProjects_None(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("projects")
	require.NoError(t, err)
	assert.Contains(t, out, "No projects found")
}

func TestPricing(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("pricing")
	require.NoError(t, err)
	assert.Contains(t, out, "built-in")
	assert.Contains(t, out, "opus-4-5")

	out, err = env.run("pricing", "-model", "claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Contains(t, out, "input $3.00")
	assert.Contains(t, out, "output $15.00")

	out, err = env.run("pricing", "-model", "gpt-4o")
	require.NoError(t, err)
	assert.Contains(t, out, "no matching rate")
}

func TestPricing_Configured(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)
	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("pricing:\n  - match: sonnet\n    name: Flat\n    input: \"1\"\n    output: \"1\"\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := env.run("pricing")
	require.NoError(t, err)
	assert.Contains(t, out, "configured")
	assert.Contains(t, out, "Flat")

	// 1.1M tokens at $1 per million, plus the opus override.
	out, err = env.run("report", "-format", "json", "-now", "2024-03-10")
	require.NoError(t, err)
	var doc struct {
		TotalCost decimal.Decimal `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, doc.TotalCost.Equal(decimal.RequireFromString("2.35")), "total = %s", doc.TotalCost)
}

func TestAlias(t *testing.T) {
	env := newTestEnv(t).withCorpus(t)

	out, err := env.run("alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No aliases set")

	out, err = env.run("alias", "set", "-Users-me-code-api", "backend")
	require.NoError(t, err)
	assert.Contains(t, out, `"backend"`)

	out, err = env.run("alias", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "backend")

	out, err = env.run("report", "-format", "simple", "-now", "2024-03-10")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: $4.50")

	out, err = env.run("alias", "rm", "-Users-me-code-api")
	require.NoError(t, err)
	assert.Contains(t, out, `"api"`)

	out, err = env.run("alias", "rm", "-Users-me-code-api")
	require.NoError(t, err)
	assert.Contains(t, out, "has no alias")
}

func TestAlias_Usage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("alias", "set", "only-one")
	assert.Error(t, err)

	_, err = env.run("alias", "bogus")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "projects_dir: "+env.root)
	assert.Contains(t, out, "window_days: 3")

	out, err = env.run("config", "show", "-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"ProjectsDir"`)

	out, err = env.run("config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, env.configPath+" [found]")

	target := filepath.Join(t.TempDir(), "new", "config.yaml")
	out, err = env.run("config", "init", "-output", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	loaded, err := config.LoadFromFile(target)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Report, loaded.Report)

	_, err = env.run("config", "init", "-output", target)
	assert.Error(t, err, "existing file needs -force")

	_, err = env.run("config", "init", "-output", target, "-force")
	assert.NoError(t, err)
}
