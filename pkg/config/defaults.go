package config

import (
	"os"
	"path/filepath"
)

// defaultProjectsDir returns ~/.claude/projects.
func defaultProjectsDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "projects")
	}

	return filepath.Join(homeDir, ".claude", "projects")
}

// defaultDBPath returns the default alias database path.
//
// Returns: ~/.config/token-cost/projects.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./projects.db"
	}

	return filepath.Join(homeDir, ".config", "token-cost", "projects.db")
}

// DefaultPath returns the default configuration file path.
//
// Returns: ~/.config/token-cost/config.yaml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "token-cost", "config.yaml")
}
