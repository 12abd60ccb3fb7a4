package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/token-cost/pkg/aggregator"
	"github.com/0xmhha/token-cost/pkg/ingest"
	"github.com/0xmhha/token-cost/pkg/logger"
	"github.com/0xmhha/token-cost/pkg/watcher"
)

// monitor implements the Monitor interface.
type monitor struct {
	config  Config
	driver  ingest.Driver
	watcher watcher.Watcher
	root    string
	logger  logger.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}

	updates chan Update
	last    aggregator.Result
}

// New creates a monitor that recomputes with driver and watches root
// with w. A nil watcher leaves only the periodic refresh.
func New(cfg Config, driver ingest.Driver, w watcher.Watcher, root string, log logger.Logger) Monitor {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &monitor{
		config:  cfg,
		driver:  driver,
		watcher: w,
		root:    root,
		logger:  log,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		updates: make(chan Update, 1),
	}
}

// Start implements Monitor.Start.
func (m *monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMonitorClosed
	}
	if m.running {
		return ErrMonitorRunning
	}

	now := m.config.Now()
	res, err := m.driver.Run(ctx, now)
	if err != nil {
		return err
	}
	m.last = res
	m.publish(Update{At: now, Trigger: TriggerStart, Result: res, Delta: decimal.Zero})

	var (
		changes <-chan watcher.Change
		errs    <-chan error
	)
	if m.watcher != nil {
		if err := m.watcher.Start(ctx, m.root); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		changes = m.watcher.Changes()
		errs = m.watcher.Errors()
	}

	m.running = true
	go m.loop(ctx, changes, errs)

	m.logger.Info("monitor started",
		"root", m.root,
		"refresh_interval", m.config.RefreshInterval,
		"watching", m.watcher != nil)

	return nil
}

// Updates implements Monitor.Updates.
func (m *monitor) Updates() <-chan Update {
	return m.updates
}

// Close implements Monitor.Close.
func (m *monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	running := m.running
	close(m.stop)
	m.mu.Unlock()

	if running {
		<-m.done
	} else {
		close(m.updates)
	}

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close watcher: %w", err)
		}
	}

	m.logger.Info("monitor closed")
	return nil
}

// loop owns the updates channel after Start and closes it on exit.
func (m *monitor) loop(ctx context.Context, changes <-chan watcher.Change, errs <-chan error) {
	defer close(m.done)
	defer close(m.updates)

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-m.stop:
			return

		case change, ok := <-changes:
			if !ok {
				m.logger.Warn("watcher stopped, falling back to periodic refresh")
				changes = nil
				continue
			}
			m.logger.Debug("change detected",
				"files", len(change.Paths),
				"ops", change.Ops.String())
			m.refresh(ctx, TriggerChange)
			ticker.Reset(m.config.RefreshInterval)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Warn("watcher error", "error", err)

		case <-ticker.C:
			m.refresh(ctx, TriggerTick)
		}
	}
}

// refresh recomputes and publishes one update.
func (m *monitor) refresh(ctx context.Context, trigger Trigger) {
	now := m.config.Now()
	res, err := m.driver.Run(ctx, now)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("recomputation failed",
			"trigger", trigger,
			"error", err)
		m.publish(Update{At: now, Trigger: trigger, Result: m.last, Delta: decimal.Zero, Err: err})
		return
	}

	delta := res.TotalCost.Sub(m.last.TotalCost)
	m.last = res
	m.publish(Update{At: now, Trigger: trigger, Result: res, Delta: delta})
}

// publish replaces any unread update with u. Only the owner of the
// updates channel calls it, so the drain cannot race with another send.
func (m *monitor) publish(u Update) {
	for {
		select {
		case m.updates <- u:
			return
		default:
		}

		select {
		case stale := <-m.updates:
			m.logger.Debug("dropping unread update", "at", stale.At)
		default:
		}
	}
}
