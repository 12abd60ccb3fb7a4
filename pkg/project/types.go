// Package project names project directories for presentation.
//
// Claude Code stores each project under a directory whose name is the
// project's absolute path with separators replaced, for example
// "-Users-me-code-api". DisplayName decodes such names to their last path
// segment. A Store persists user-chosen aliases that take precedence over
// the decoded name; it never stores usage or cost data.
//
// Example usage:
//
//	store, err := project.Open(project.Config{
//	    DBPath: "~/.config/token-cost/projects.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.SetAlias("-Users-me-code-api", "api"); err != nil {
//	    log.Fatal(err)
//	}
//
//	names, err := project.LoadResolver(store)
//	fmt.Println(names.Name("-Users-me-code-api")) // api
package project

import "time"

// Alias is a user-chosen display name for a project directory.
type Alias struct {
	// Project is the project directory name as found under the root.
	Project string `json:"project"`

	// Name is the display name (must be unique).
	Name string `json:"name"`

	// CreatedAt is when the alias was first set.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the alias was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists project aliases.
type Store interface {
	// SetAlias assigns name to project, replacing any previous alias.
	//
	// Returns error if:
	//   - project or name is empty
	//   - name is already used by another project
	//   - database operation fails
	SetAlias(project, name string) error

	// Alias returns the alias of project, or ErrAliasNotFound.
	Alias(project string) (*Alias, error)

	// RemoveAlias deletes the alias of project.
	// Does not error if the project has no alias.
	RemoveAlias(project string) error

	// List returns all aliases ordered by project.
	List() ([]*Alias, error)

	// Close closes the database and releases its file lock.
	Close() error
}

// Namer maps project directory names to display names.
type Namer interface {
	Name(project string) string
}

// Config contains alias store configuration.
type Config struct {
	// DBPath is the BoltDB file path.
	DBPath string

	// Timeout is how long to wait for the file lock (default: 1 second).
	Timeout time.Duration
}
