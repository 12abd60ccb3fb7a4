// Package discovery enumerates the usage log files of a Claude Code
// projects directory.
//
// The layout is one subdirectory per project under a root, each holding
// any number of JSONL files at any depth:
//
//	root/
//	  -Users-me-code-api/
//	    4f0c...-session.jsonl
//	    subagents/agent-1.jsonl
//	  -Users-me-code-web/
//	    ...
//
// Example usage:
//
//	d := discovery.New("~/.claude/projects", logger.Default())
//	sources, err := d.Discover()
//	if errors.Is(err, discovery.ErrSourceNotFound) {
//	    log.Fatal("no Claude data")
//	}
//	for _, src := range sources {
//	    fmt.Printf("%s: %s\n", src.Project, src.Path)
//	}
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xmhha/token-cost/pkg/logger"
)

// logExt is the extension of usage log files.
const logExt = ".jsonl"

// Source is one log file and the project it belongs to.
type Source struct {
	// Project is the name of the project directory under the root.
	Project string

	// Path is the path of the JSONL file.
	Path string
}

// Project summarises one project directory.
type Project struct {
	// Name is the directory name.
	Name string

	// Path is the directory path.
	Path string

	// Files is the number of log files found.
	Files int

	// Bytes is the total size of those files.
	Bytes int64
}

// Discoverer enumerates log files under a projects root.
type Discoverer interface {
	// Discover returns every log file under the root, grouped by project.
	//
	// Projects are returned in directory-name order and files within a
	// project in lexical path order, so repeated calls over the same tree
	// return the same sequence.
	//
	// Returns ErrSourceNotFound if the root is missing. Unreadable project
	// subdirectories are logged and skipped.
	Discover() ([]Source, error)

	// Projects summarises the project directories under the root.
	Projects() ([]Project, error)

	// Root returns the expanded root path.
	Root() string
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	root   string
	logger logger.Logger
}

// New creates a Discoverer for root. A leading ~ is expanded.
func New(root string, log logger.Logger) Discoverer {
	return &discoverer{
		root:   ExpandHome(root),
		logger: log,
	}
}

// Root implements Discoverer.Root.
func (d *discoverer) Root() string {
	return d.root
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]Source, error) {
	projects, err := d.projectDirs()
	if err != nil {
		return nil, err
	}

	var sources []Source
	for _, name := range projects {
		files := d.scanProject(filepath.Join(d.root, name))
		for _, path := range files {
			sources = append(sources, Source{Project: name, Path: path})
		}
	}

	d.logger.Debug("discovery complete",
		"root", d.root,
		"projects", len(projects),
		"files", len(sources))

	return sources, nil
}

// Projects implements Discoverer.Projects.
func (d *discoverer) Projects() ([]Project, error) {
	names, err := d.projectDirs()
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(names))
	for _, name := range names {
		dir := filepath.Join(d.root, name)
		p := Project{Name: name, Path: dir}
		for _, path := range d.scanProject(dir) {
			p.Files++
			if info, statErr := os.Stat(path); statErr == nil {
				p.Bytes += info.Size()
			}
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// projectDirs lists the immediate subdirectories of the root.
func (d *discoverer) projectDirs() ([]string, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, d.root)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", d.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, d.root)
	}

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// scanProject returns the log files under dir, recursively.
func (d *discoverer) scanProject(dir string) []string {
	files := make([]string, 0, 10)

	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("failed to scan path, skipping",
				"path", path,
				"error", err)
			if entry != nil && entry.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		if !strings.HasSuffix(entry.Name(), logExt) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		d.logger.Warn("failed to scan project directory",
			"path", dir,
			"error", walkErr)
	}

	d.logger.Debug("scanned project directory",
		"path", dir,
		"files_found", len(files))

	return files
}

// ExpandHome expands ~ in file paths to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
