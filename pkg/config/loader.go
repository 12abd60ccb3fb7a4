package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file and default values.
const (
	EnvProjectsDir     = "TOKEN_COST_PROJECTS_DIR"
	EnvClaudeConfigDir = "CLAUDE_CONFIG_DIR"
	EnvWindowDays      = "TOKEN_COST_WINDOW_DAYS"
	EnvDBPath          = "TOKEN_COST_DB"
	EnvLogLevel        = "TOKEN_COST_LOG_LEVEL"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile reads a single file without defaults or validation.
	LoadFromFile(path string) (*Config, error)

	// Path returns the config file that Load reads, or "" if none exists.
	Path() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
	getenv     func(string) string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for config file in:
// 1. ./token-cost.yaml (current directory)
// 2. ~/.config/token-cost/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
		getenv:     os.Getenv,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.Path()
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicit path must load; a discovered one may be unreadable.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	cfg, err := l.applyEnvVars(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}

	candidates := []string{
		"./token-cost.yaml",
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into base.
//
// File values override base values only when they are non-zero.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.ProjectsDir != "" {
		result.ProjectsDir = override.ProjectsDir
	}

	if override.Report.WindowDays != 0 {
		result.Report.WindowDays = override.Report.WindowDays
	}
	if override.Report.TopProjects != 0 {
		result.Report.TopProjects = override.Report.TopProjects
	}

	if len(override.Pricing) > 0 {
		result.Pricing = append([]PricingRule(nil), override.Pricing...)
	}

	if override.Performance.Workers != 0 {
		result.Performance.Workers = override.Performance.Workers
	}

	if override.Watch.RefreshInterval != 0 {
		result.Watch.RefreshInterval = override.Watch.RefreshInterval
	}
	if override.Watch.Debounce != 0 {
		result.Watch.Debounce = override.Watch.Debounce
	}

	if override.Display.Format != "" {
		result.Display.Format = strings.ToLower(override.Display.Format)
	}

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}

	if override.Logging.Level != "" {
		result.Logging.Level = strings.ToLower(override.Logging.Level)
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = strings.ToLower(override.Logging.Format)
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// TOKEN_COST_PROJECTS_DIR wins over CLAUDE_CONFIG_DIR, which points at the
// Claude config root and therefore has "projects" appended.
func (l *loader) applyEnvVars(cfg *Config) (*Config, error) {
	result := *cfg

	if dir := strings.TrimSpace(l.getenv(EnvClaudeConfigDir)); dir != "" {
		result.ProjectsDir = filepath.Join(dir, "projects")
	}
	if dir := strings.TrimSpace(l.getenv(EnvProjectsDir)); dir != "" {
		result.ProjectsDir = dir
	}

	if raw := strings.TrimSpace(l.getenv(EnvWindowDays)); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvWindowDays, raw)
		}
		result.Report.WindowDays = days
	}

	if dbPath := l.getenv(EnvDBPath); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if level := l.getenv(EnvLogLevel); level != "" {
		result.Logging.Level = strings.ToLower(level)
	}

	return &result, nil
}

// Load is a convenience function that creates a loader and loads configuration.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads and validates
// configuration with path as the config file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
