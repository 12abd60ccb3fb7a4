// Package config provides configuration management for token-cost.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Projects dir: %s\n", cfg.ProjectsDir)
package config

import (
	"fmt"
	"time"

	"github.com/0xmhha/token-cost/pkg/logger"
	"github.com/0xmhha/token-cost/pkg/pricing"
)

// Config represents the complete application configuration.
//
// Invariants:
// - ProjectsDir is not empty
// - Report.WindowDays >= 1 and Report.TopProjects >= 1
// - Performance.Workers >= 1
// - Watch.RefreshInterval > 0 and Watch.Debounce >= 0
// - Pricing, when present, parses into a valid table.
type Config struct {
	// ProjectsDir is the Claude Code projects directory to scan.
	ProjectsDir string `yaml:"projects_dir"`

	// Report settings
	Report ReportConfig `yaml:"report"`

	// Pricing replaces the built-in rate card when non-empty.
	// Rules are matched in the order given.
	Pricing []PricingRule `yaml:"pricing,omitempty"`

	// Performance settings
	Performance PerformanceConfig `yaml:"performance"`

	// Watch settings
	Watch WatchConfig `yaml:"watch"`

	// Display settings
	Display DisplayConfig `yaml:"display"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ReportConfig contains report settings.
type ReportConfig struct {
	// Number of calendar days in the trailing window, today included
	WindowDays int `yaml:"window_days"`

	// Number of projects listed before "...and N more"
	TopProjects int `yaml:"top_projects"`
}

// PricingRule is one rate-card row. Rates are decimal strings in dollars
// per million tokens so no precision is lost in the file.
type PricingRule struct {
	Match      string `yaml:"match"`
	Name       string `yaml:"name"`
	Input      string `yaml:"input"`
	Output     string `yaml:"output"`
	CacheWrite string `yaml:"cache_write"`
	CacheRead  string `yaml:"cache_read"`
}

// PerformanceConfig contains performance tuning settings.
type PerformanceConfig struct {
	// Number of files parsed concurrently
	Workers int `yaml:"workers"`
}

// WatchConfig contains settings of the watch command.
type WatchConfig struct {
	// Full recomputation period when no file changes
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// Quiet period after a file change before recomputing
	Debounce time.Duration `yaml:"debounce"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Output format (table, json, simple)
	Format string `yaml:"format"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB file holding project aliases
	DBPath string `yaml:"db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error, off)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// validFormats lists the accepted display formats.
var validFormats = map[string]bool{
	"table":  true,
	"json":   true,
	"simple": true,
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.ProjectsDir == "" {
		return ErrNoProjectsDir
	}

	if c.Report.WindowDays < 1 {
		return ErrInvalidWindowDays
	}
	if c.Report.TopProjects < 1 {
		return ErrInvalidTopProjects
	}

	if c.Performance.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Watch.RefreshInterval <= 0 {
		return ErrInvalidRefreshInterval
	}
	if c.Watch.Debounce < 0 {
		return ErrInvalidDebounce
	}

	if !validFormats[c.Display.Format] {
		return ErrInvalidDisplayFormat
	}

	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogLevel, err)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	if _, err := c.PricingTable(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}

	return nil
}

// PricingTable returns the configured rate card, or the built-in one when
// no pricing rules are configured.
func (c *Config) PricingTable() (*pricing.Table, error) {
	if len(c.Pricing) == 0 {
		return pricing.Default(), nil
	}

	specs := make([]pricing.RuleSpec, 0, len(c.Pricing))
	for _, r := range c.Pricing {
		specs = append(specs, pricing.RuleSpec{
			Match:      r.Match,
			Name:       r.Name,
			Input:      r.Input,
			Output:     r.Output,
			CacheWrite: r.CacheWrite,
			CacheRead:  r.CacheRead,
		})
	}
	return pricing.FromSpecs(specs)
}

// LoggerConfig converts the logging section for logger.New.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Output: c.Logging.Output,
		Format: c.Logging.Format,
	}
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		ProjectsDir: defaultProjectsDir(),
		Report: ReportConfig{
			WindowDays:  3,
			TopProjects: 5,
		},
		Performance: PerformanceConfig{
			Workers: 1,
		},
		Watch: WatchConfig{
			RefreshInterval: 10 * time.Second,
			Debounce:        500 * time.Millisecond,
		},
		Display: DisplayConfig{
			Format: "table",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
			Format: "text",
		},
	}
}
