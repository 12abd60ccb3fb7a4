package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/config"
	"github.com/0xmhha/token-cost/pkg/discovery"
	"github.com/0xmhha/token-cost/pkg/display"
	"github.com/0xmhha/token-cost/pkg/ingest"
	"github.com/0xmhha/token-cost/pkg/logger"
	"github.com/0xmhha/token-cost/pkg/monitor"
	"github.com/0xmhha/token-cost/pkg/project"
	"github.com/0xmhha/token-cost/pkg/watcher"
)

// aliasLockTimeout bounds the wait for the alias database when another
// token-cost process holds it.
const aliasLockTimeout = 200 * time.Millisecond

// scanFlags are the flags shared by commands that run an aggregation.
type scanFlags struct {
	dir     string
	days    int
	now     string
	workers int
}

// addScanFlags registers the aggregation flags on fs.
func addScanFlags(fs *flag.FlagSet) *scanFlags {
	f := &scanFlags{}
	fs.StringVar(&f.dir, "dir", "", "projects directory (overrides config)")
	fs.IntVar(&f.days, "days", 0, "days in the trailing window, today included")
	fs.StringVar(&f.now, "now", "", "report as of this moment (RFC3339 or YYYY-MM-DD)")
	fs.IntVar(&f.workers, "workers", 0, "files parsed concurrently")
	return f
}

// apply overrides cfg with the flags that were set.
func (f scanFlags) apply(cfg *config.Config) error {
	if f.dir != "" {
		cfg.ProjectsDir = f.dir
	}
	if f.days != 0 {
		cfg.Report.WindowDays = f.days
	}
	if f.workers != 0 {
		cfg.Performance.Workers = f.workers
	}
	return cfg.Validate()
}

// parseNow returns the reporting moment. Empty means the current time; a
// bare date means midnight local time of that day.
func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(aggregator.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -now %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// loadConfig loads configuration and creates the logger it describes.
func loadConfig(configPath string) (*config.Config, logger.Logger, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}

// newDriver builds an ingestion driver from cfg.
func newDriver(cfg *config.Config, log logger.Logger) (ingest.Driver, error) {
	table, err := cfg.PricingTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing: %w", err)
	}

	return ingest.New(ingest.Config{
		Root:       cfg.ProjectsDir,
		WindowDays: cfg.Report.WindowDays,
		Workers:    cfg.Performance.Workers,
		Pricing:    table,
	}, log), nil
}

// loadNames reads project aliases. A missing or locked database falls back
// to decoded directory names; a missing one is not created.
func loadNames(cfg *config.Config, log logger.Logger) project.Namer {
	if _, err := os.Stat(discovery.ExpandHome(cfg.Storage.DBPath)); err != nil {
		log.Debug("no project aliases", "db_path", cfg.Storage.DBPath, "error", err)
		return (*project.Resolver)(nil)
	}

	store, err := project.Open(project.Config{
		DBPath:  cfg.Storage.DBPath,
		Timeout: aliasLockTimeout,
	}, log)
	if err != nil {
		log.Warn("project aliases unavailable", "error", err)
		return (*project.Resolver)(nil)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error("failed to close alias store", "error", closeErr)
		}
	}()

	names, err := project.LoadResolver(store)
	if err != nil {
		log.Warn("failed to read project aliases", "error", err)
		return (*project.Resolver)(nil)
	}
	return names
}

// signalContext returns a context cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// reportCommand prints one cost report.
type reportCommand struct {
	out        io.Writer
	configPath string
	scan       scanFlags
	format     string
	top        int
	compact    bool
}

// Execute runs the report command.
func (c *reportCommand) Execute() error {
	cfg, log, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if err := c.scan.apply(cfg); err != nil {
		return err
	}

	now, err := parseNow(c.scan.now)
	if err != nil {
		return err
	}

	formatter, err := c.formatter(cfg, log)
	if err != nil {
		return err
	}

	drv, err := newDriver(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	res, err := drv.Run(ctx, now)
	if err != nil {
		return err
	}

	return formatter.FormatResult(c.out, res)
}

// formatter resolves the output format and display settings.
func (c *reportCommand) formatter(cfg *config.Config, log logger.Logger) (display.Formatter, error) {
	name := c.format
	if name == "" {
		name = cfg.Display.Format
	}
	format, err := display.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	top := c.top
	if top <= 0 {
		top = cfg.Report.TopProjects
	}

	return display.New(display.Config{
		Format:      format,
		TopProjects: top,
		Names:       loadNames(cfg, log),
		Compact:     c.compact,
	}), nil
}

// projectsCommand lists project directories with their log files.
type projectsCommand struct {
	out        io.Writer
	configPath string
	dir        string
}

// Execute runs the projects command.
func (c *projectsCommand) Execute() error {
	cfg, log, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.dir != "" {
		cfg.ProjectsDir = c.dir
	}

	disc := discovery.New(cfg.ProjectsDir, log)
	projects, err := disc.Projects()
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		_, err := fmt.Fprintf(c.out, "No projects found in %s\n", disc.Root())
		return err
	}

	names := loadNames(cfg, log)
	rows := make([][]string, 0, len(projects))
	var files int
	var size int64
	for _, p := range projects {
		rows = append(rows, []string{
			names.Name(p.Name),
			p.Name,
			display.FormatNumber(int64(p.Files)),
			display.FormatBytes(p.Bytes),
		})
		files += p.Files
		size += p.Bytes
	}

	if _, err := fmt.Fprintf(c.out, "Projects in %s\n\n", disc.Root()); err != nil {
		return err
	}
	if err := display.WriteTable(c.out, []string{"Name", "Directory", "Files", "Size"}, rows, 2, 3); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "\n%d projects, %d files, %s\n",
		len(projects), files, display.FormatBytes(size))
	return err
}

// pricingCommand prints the active rate card.
type pricingCommand struct {
	out        io.Writer
	configPath string
	model      string
}

// Execute runs the pricing command.
func (c *pricingCommand) Execute() error {
	cfg, _, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	table, err := cfg.PricingTable()
	if err != nil {
		return fmt.Errorf("failed to load pricing: %w", err)
	}

	if c.model != "" {
		entry, ok := table.Lookup(c.model)
		if !ok {
			_, err := fmt.Fprintf(c.out, "%s: no matching rate, usage is not billed\n", c.model)
			return err
		}
		_, err := fmt.Fprintf(c.out, "%s: %s (input %s, output %s, cache write %s, cache read %s per 1M tokens)\n",
			c.model, entry.Name,
			display.FormatCurrency(entry.Input), display.FormatCurrency(entry.Output),
			display.FormatCurrency(entry.CacheWrite), display.FormatCurrency(entry.CacheRead))
		return err
	}

	source := "built-in"
	if len(cfg.Pricing) > 0 {
		source = "configured"
	}
	if _, err := fmt.Fprintf(c.out, "Rates per 1M tokens (%s, first match wins)\n\n", source); err != nil {
		return err
	}

	rules := table.Rules()
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			r.Match,
			r.Entry.Name,
			r.Entry.Input.String(),
			r.Entry.Output.String(),
			r.Entry.CacheWrite.String(),
			r.Entry.CacheRead.String(),
		})
	}
	return display.WriteTable(c.out,
		[]string{"Match", "Model", "Input", "Output", "Cache Write", "Cache Read"},
		rows, 2, 3, 4, 5)
}

// watchCommand keeps the report current.
type watchCommand struct {
	out         io.Writer
	configPath  string
	scan        scanFlags
	refresh     time.Duration
	format      string
	clearScreen bool
}

// Execute runs the watch command until interrupted.
func (c *watchCommand) Execute() error {
	cfg, log, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.refresh > 0 {
		cfg.Watch.RefreshInterval = c.refresh
	}
	if err := c.scan.apply(cfg); err != nil {
		return err
	}
	if c.scan.now != "" {
		return errors.New("-now is not supported by watch")
	}

	format := display.FormatTable
	if c.format != "" {
		if format, err = display.ParseFormat(c.format); err != nil {
			return err
		}
	}
	if format == display.FormatJSON {
		return fmt.Errorf("%w: json is not supported by watch", display.ErrInvalidFormat)
	}

	formatter := display.New(display.Config{
		Format:      format,
		TopProjects: cfg.Report.TopProjects,
		Names:       loadNames(cfg, log),
		Compact:     true,
	})

	drv, err := newDriver(cfg, log)
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{
		DebounceInterval: cfg.Watch.Debounce,
	}, log)
	if err != nil {
		return err
	}

	mon := monitor.New(monitor.Config{
		RefreshInterval: cfg.Watch.RefreshInterval,
	}, drv, w, cfg.ProjectsDir, log)
	defer func() {
		if closeErr := mon.Close(); closeErr != nil {
			log.Error("failed to close monitor", "error", closeErr)
		}
	}()

	ctx, stop := signalContext()
	defer stop()

	if err := mon.Start(ctx); err != nil {
		return err
	}

	redraw := c.clearScreen && isTerminal(c.out)
	for update := range mon.Updates() {
		if err := c.render(formatter, update, redraw); err != nil {
			return err
		}
	}
	return nil
}

// render writes one update.
func (c *watchCommand) render(formatter display.Formatter, u monitor.Update, redraw bool) error {
	if redraw {
		if _, err := fmt.Fprint(c.out, "\033[H\033[2J"); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(c.out); err != nil {
			return err
		}
	}

	if err := formatter.FormatResult(c.out, u.Result); err != nil {
		return err
	}

	status := fmt.Sprintf("Updated %s (%s)", u.At.Format("15:04:05"), u.Trigger)
	if u.Delta.IsPositive() {
		status += ", +" + display.FormatCurrency(u.Delta)
	}
	if u.Err != nil {
		status += ", refresh failed: " + u.Err.Error()
	}
	_, err := fmt.Fprintf(c.out, "\n%s. Press Ctrl+C to exit.\n", status)
	return err
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
