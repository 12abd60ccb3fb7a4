package project

import "errors"

// Common errors returned by the alias store.
var (
	// ErrAliasNotFound is returned when a project has no alias.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrNameConflict is returned when an alias is already used by another project.
	ErrNameConflict = errors.New("alias already used by another project")

	// ErrEmptyName is returned when an alias is empty.
	ErrEmptyName = errors.New("alias cannot be empty")

	// ErrEmptyProject is returned when a project name is empty.
	ErrEmptyProject = errors.New("project name cannot be empty")
)
