// Package main provides the token-cost CLI application.
//
// Token Cost reports what Claude Code usage has cost, from the JSONL logs
// under the projects directory: totals, today, per model, per project and
// a short trailing window of days.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		// ingest.ErrSourceNotFound already reads "projects directory not found: <root>".
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token-cost", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "token-cost %s\n", version)
		return nil
	}

	args = fs.Args()
	if len(args) == 0 {
		// A bare invocation prints the report, like the original tool.
		return runReportCommand(stdout, *configPath, nil)
	}

	command := args[0]

	switch command {
	case "report":
		return runReportCommand(stdout, *configPath, args[1:])
	case "projects":
		return runProjectsCommand(stdout, *configPath, args[1:])
	case "pricing":
		return runPricingCommand(stdout, *configPath, args[1:])
	case "watch":
		return runWatchCommand(stdout, *configPath, args[1:])
	case "alias":
		cmd := &aliasCommand{out: stdout, configPath: *configPath}
		return cmd.Execute(args[1:])
	case "config":
		cmd := &configCommand{out: stdout, configPath: *configPath}
		return cmd.Execute(args[1:])
	case "help":
		return showUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runReportCommand runs the report command.
func runReportCommand(stdout io.Writer, configPath string, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	scan := addScanFlags(fs)
	format := fs.String("format", "", "output format (table, json, simple)")
	top := fs.Int("top", 0, "number of projects listed")
	compact := fs.Bool("compact", false, "omit the daily window and scan summary")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &reportCommand{
		out:        stdout,
		configPath: configPath,
		scan:       *scan,
		format:     *format,
		top:        *top,
		compact:    *compact,
	}
	return cmd.Execute()
}

// runProjectsCommand runs the projects command.
func runProjectsCommand(stdout io.Writer, configPath string, args []string) error {
	fs := flag.NewFlagSet("projects", flag.ContinueOnError)
	dir := fs.String("dir", "", "projects directory (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &projectsCommand{
		out:        stdout,
		configPath: configPath,
		dir:        *dir,
	}
	return cmd.Execute()
}

// runPricingCommand runs the pricing command.
func runPricingCommand(stdout io.Writer, configPath string, args []string) error {
	fs := flag.NewFlagSet("pricing", flag.ContinueOnError)
	model := fs.String("model", "", "show the rule matching this model identifier")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &pricingCommand{
		out:        stdout,
		configPath: configPath,
		model:      *model,
	}
	return cmd.Execute()
}

// runWatchCommand runs the watch command.
func runWatchCommand(stdout io.Writer, configPath string, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	scan := addScanFlags(fs)
	refresh := fs.Duration("refresh", 0, "refresh interval (e.g., 10s, 1m)")
	format := fs.String("format", "", "output format (table, simple)")
	history := fs.Bool("history", false, "keep history of updates (append mode)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &watchCommand{
		out:         stdout,
		configPath:  configPath,
		scan:        *scan,
		refresh:     *refresh,
		format:      *format,
		clearScreen: !*history,
	}
	return cmd.Execute()
}

// showUsage displays usage information.
func showUsage(w io.Writer) error {
	usage := `Token Cost - Claude Code usage cost reporting tool

Usage:
  token-cost [flags] [command] [command flags]

Commands:
  report      Show the cost report (default)
  projects    List discovered project directories
  pricing     Show the rate card
  watch       Keep the report current as logs change
  alias       Project display names (set, rm, list)
  config      Configuration management (show, path, init)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Report Command Flags:
  -dir        Projects directory (overrides config)
  -days       Days in the trailing window, today included
  -now        Report as of this moment (RFC3339 or YYYY-MM-DD)
  -workers    Files parsed concurrently
  -format     Output format (table, json, simple)
  -top        Number of projects listed
  -compact    Omit the daily window and scan summary

Watch Command Flags:
  -dir, -days, -workers as for report
  -refresh    Refresh interval (default from config, 10s)
  -format     Output format (table, simple)
  -history    Keep history of updates (append mode, default: false)

Examples:
  # Cost report for the last 3 days
  token-cost

  # Last week, as JSON
  token-cost report -days 7 -format json

  # Report as of a past day
  token-cost report -now 2024-03-10

  # Which rate applies to a model
  token-cost pricing -model claude-sonnet-4-20250514

  # Name a project
  token-cost alias set -Users-me-code-api api

  # Live view
  token-cost watch -refresh 30s

Version: %s
`

	_, err := fmt.Fprintf(w, usage, version)
	return err
}
