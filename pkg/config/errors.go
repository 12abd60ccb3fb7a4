package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoProjectsDir is returned when no projects directory is configured.
	ErrNoProjectsDir = errors.New("no projects directory specified")

	// ErrInvalidWindowDays is returned when the report window is shorter than one day.
	ErrInvalidWindowDays = errors.New("invalid window days: must be >= 1")

	// ErrInvalidTopProjects is returned when top projects is < 1.
	ErrInvalidTopProjects = errors.New("invalid top projects: must be >= 1")

	// ErrInvalidWorkers is returned when the worker count is < 1.
	ErrInvalidWorkers = errors.New("invalid workers: must be >= 1")

	// ErrInvalidRefreshInterval is returned when refresh interval is <= 0.
	ErrInvalidRefreshInterval = errors.New("invalid refresh interval: must be > 0")

	// ErrInvalidDebounce is returned when debounce is negative.
	ErrInvalidDebounce = errors.New("invalid debounce: must be >= 0")

	// ErrInvalidDisplayFormat is returned when display format is not recognized.
	ErrInvalidDisplayFormat = errors.New("invalid display format: must be table, json, or simple")

	// ErrNoDBPath is returned when the alias database path is empty.
	ErrNoDBPath = errors.New("no database path specified")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, error, or off")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidPricing is returned when the pricing section cannot be parsed.
	ErrInvalidPricing = errors.New("invalid pricing rules")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
