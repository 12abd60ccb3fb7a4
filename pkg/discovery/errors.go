package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrSourceNotFound is returned when the projects root does not exist
	// or is not a directory.
	ErrSourceNotFound = errors.New("projects directory not found")
)
