package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/0xmhha/token-cost/pkg/config"
	"github.com/0xmhha/token-cost/pkg/display"
	"github.com/0xmhha/token-cost/pkg/logger"
	"github.com/0xmhha/token-cost/pkg/project"
)

// aliasCommand manages project display names.
//
// Arguments are positional so that project directory names, which usually
// start with "-", are never taken for flags.
type aliasCommand struct {
	out        io.Writer
	configPath string
}

// Execute runs the alias command with given arguments.
func (c *aliasCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "set":
		if len(subargs) != 2 {
			return errors.New("usage: token-cost alias set <project-dir> <name>")
		}
		return c.withStore(func(store project.Store) error {
			return c.runSet(store, subargs[0], subargs[1])
		})
	case "rm", "remove":
		if len(subargs) != 1 {
			return errors.New("usage: token-cost alias rm <project-dir>")
		}
		return c.withStore(func(store project.Store) error {
			return c.runRemove(store, subargs[0])
		})
	case "list", "ls":
		return c.withStore(c.runList)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown alias subcommand: %s", subcommand)
	}
}

// withStore opens the alias store for the duration of fn.
func (c *aliasCommand) withStore(fn func(project.Store) error) (err error) {
	cfg, log, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close alias store: %w", closeErr)
		}
	}()

	return fn(store)
}

func openStore(cfg *config.Config, log logger.Logger) (project.Store, error) {
	store, err := project.Open(project.Config{DBPath: cfg.Storage.DBPath}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open alias store: %w", err)
	}
	return store, nil
}

func (c *aliasCommand) runSet(store project.Store, dir, name string) error {
	if err := store.SetAlias(dir, name); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.out, "%s is now shown as %q\n", dir, name)
	return err
}

func (c *aliasCommand) runRemove(store project.Store, dir string) error {
	if _, err := store.Alias(dir); err != nil {
		if errors.Is(err, project.ErrAliasNotFound) {
			_, err = fmt.Fprintf(c.out, "%s has no alias\n", dir)
		}
		return err
	}
	if err := store.RemoveAlias(dir); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.out, "Removed alias of %s, now shown as %q\n", dir, project.DisplayName(dir))
	return err
}

func (c *aliasCommand) runList(store project.Store) error {
	aliases, err := store.List()
	if err != nil {
		return err
	}

	if len(aliases) == 0 {
		_, err := fmt.Fprintln(c.out, "No aliases set")
		return err
	}

	rows := make([][]string, 0, len(aliases))
	for _, a := range aliases {
		rows = append(rows, []string{a.Name, a.Project, a.UpdatedAt.Local().Format("2006-01-02 15:04")})
	}
	return display.WriteTable(c.out, []string{"Name", "Directory", "Updated"}, rows)
}

// showHelp displays help for alias command.
func (c *aliasCommand) showHelp() error {
	help := `Alias - Project display names

Usage:
  token-cost alias <subcommand> [args]

Subcommands:
  set <project-dir> <name>   Show project-dir as name in reports
  rm <project-dir>           Remove the alias of project-dir
  list                       List aliases

Examples:
  token-cost alias set -Users-me-code-api api
  token-cost alias list
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
