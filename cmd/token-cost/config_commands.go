package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/token-cost/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	out        io.Writer
	configPath string
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "init":
		return c.runInit(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the effective configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch *format {
	case "json":
		return c.showJSON(cfg)
	case "yaml":
		return c.showYAML(cfg)
	default:
		return fmt.Errorf("invalid format %q: must be yaml or json", *format)
	}
}

// showYAML displays configuration in YAML format.
func (c *configCommand) showYAML(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintf(c.out, "# Current Configuration\n# Source: %s\n\n%s", c.source(), data)
	return err
}

// showJSON displays configuration in JSON format.
func (c *configCommand) showJSON(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	paths := []string{"./token-cost.yaml", config.DefaultPath()}
	if c.configPath != "" {
		paths = []string{c.configPath}
	}

	if _, err := fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):"); err != nil {
		return err
	}
	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		if _, err := fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, exists); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(c.out, "\nActive configuration: %s\n", c.source())
	return err
}

// runInit writes the default configuration to a file.
func (c *configCommand) runInit(args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	output := fs.String("output", "", "output path (default: ~/.config/token-cost/config.yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = c.configPath
	}
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("configuration file already exists at %s (use -force to overwrite)", path)
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}

	_, err := fmt.Fprintf(c.out, "Default configuration written to: %s\n", path)
	return err
}

// source returns the path of the active configuration file.
func (c *configCommand) source() string {
	if p := config.NewLoader(c.configPath).Path(); p != "" {
		return p
	}
	return "defaults (no config file found)"
}

// showHelp displays help for config command.
func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  token-cost config <subcommand> [flags]

Subcommands:
  show      Display the effective configuration
  path      Show configuration file paths
  init      Write the default configuration

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Init Flags:
  -force    Overwrite an existing file
  -output   Output path for config file

Examples:
  # Show current configuration
  token-cost config show

  # Start a config file to edit
  token-cost config init
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
