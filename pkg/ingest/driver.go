package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/dedup"
	"github.com/0xmhha/token-cost/pkg/discovery"
	"github.com/0xmhha/token-cost/pkg/logger"
	"github.com/0xmhha/token-cost/pkg/parser"
	"github.com/0xmhha/token-cost/pkg/pricing"
)

// driver implements the Driver interface.
type driver struct {
	config     Config
	discoverer discovery.Discoverer
	logger     logger.Logger
}

// New creates a driver for cfg.
func New(cfg Config, log logger.Logger) Driver {
	if cfg.Pricing == nil {
		cfg.Pricing = pricing.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &driver{
		config:     cfg,
		discoverer: discovery.New(cfg.Root, log),
		logger:     log,
	}
}

// Run implements Driver.Run.
func (d *driver) Run(ctx context.Context, now time.Time) (aggregator.Result, error) {
	log := d.logger.With("run_id", uuid.NewString())
	started := time.Now()

	sources, err := d.discoverer.Discover()
	if errors.Is(err, discovery.ErrSourceNotFound) {
		return aggregator.Result{}, err
	}
	if err != nil {
		return aggregator.Result{}, fmt.Errorf("failed to discover log files: %w", err)
	}

	p := newPipeline(d.config.Pricing, aggregator.NewWindow(now, d.config.WindowDays))
	p.stats.Files = len(sources)
	p.stats.Projects = countProjects(sources)

	if d.config.Workers > 1 && len(sources) > 1 {
		err = d.runParallel(ctx, log, sources, p)
	} else {
		err = d.runSequential(ctx, log, sources, p)
	}
	if err != nil {
		return aggregator.Result{}, err
	}

	res := p.agg.Result()
	res.Scan = p.stats

	log.Info("ingestion complete",
		"root", d.discoverer.Root(),
		"files", p.stats.Files,
		"files_failed", p.stats.FilesFailed,
		"counted", p.stats.Counted,
		"duplicates", p.stats.Duplicates,
		"total_cost", res.TotalCost.String(),
		"duration", time.Since(started))

	return res, nil
}

// runSequential folds each file as it is read.
func (d *driver) runSequential(ctx context.Context, log logger.Logger, sources []discovery.Source, p *pipeline) error {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, err := parser.ParseFile(src.Path, func(ev *parser.Event) error {
			p.fold(src.Project, ev)
			return nil
		})
		p.addFile(log, src, stats, err)
	}
	return nil
}

// fileResult is the parsed content of one file, buffered for the
// combining step.
type fileResult struct {
	events []parser.Event
	stats  parser.ScanStats
	err    error
}

// runParallel parses files concurrently, then folds the buffers serially
// in discovery order. Deduplication and aggregation stay in this
// goroutine, so the result equals the sequential one.
func (d *driver) runParallel(ctx context.Context, log logger.Logger, sources []discovery.Source, p *pipeline) error {
	results := make([]fileResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.Workers)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			events, stats, err := parser.ReadFile(src.Path)
			results[i] = fileResult{events: events, stats: stats, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, src := range sources {
		r := results[i]
		for j := range r.events {
			p.fold(src.Project, &r.events[j])
		}
		p.addFile(log, src, r.stats, r.err)
	}
	return nil
}

// pipeline is the single owner of a run's mutable state.
type pipeline struct {
	table *pricing.Table
	seen  *dedup.Set
	agg   aggregator.Aggregator
	stats Stats
}

func newPipeline(table *pricing.Table, window aggregator.Window) *pipeline {
	return &pipeline{
		table: table,
		seen:  dedup.New(),
		agg:   aggregator.New(aggregator.Config{Window: window}),
	}
}

// fold takes one validated event through dedup, costing and aggregation.
func (p *pipeline) fold(project string, ev *parser.Event) {
	if p.seen.SeenBefore(ev.MessageID(), ev.RequestID) {
		p.stats.Duplicates++
		return
	}

	model := ev.Model()
	entry, known := p.table.Lookup(model)

	cost := decimal.Zero
	switch {
	case ev.CostUSD != nil:
		cost = *ev.CostUSD
	case known:
		cost = entry.Cost(*ev.Message.Usage)
	}

	rec := aggregator.Record{
		Project:   project,
		Model:     model,
		Usage:     *ev.Message.Usage,
		Cost:      cost,
		Timestamp: ev.Timestamp,
	}
	if known {
		rec.DisplayName = entry.Name
	}

	if !p.agg.Fold(rec) {
		p.stats.NonPositive++
		return
	}
	p.stats.Counted++
}

// addFile records the outcome of reading one file.
func (p *pipeline) addFile(log logger.Logger, src discovery.Source, stats parser.ScanStats, err error) {
	p.stats.Lines += stats.Lines
	p.stats.Malformed += stats.Malformed
	p.stats.Skipped += stats.Skipped

	if err != nil {
		p.stats.FilesFailed++
		log.Warn("failed to read log file, skipping",
			"project", src.Project,
			"path", src.Path,
			"error", err)
		return
	}

	log.Debug("file ingested",
		"project", src.Project,
		"path", src.Path,
		"lines", stats.Lines,
		"events", stats.Events,
		"malformed", stats.Malformed)
}

func countProjects(sources []discovery.Source) int {
	return len(lo.UniqBy(sources, func(src discovery.Source) string {
		return src.Project
	}))
}
