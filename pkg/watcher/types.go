// Package watcher reports changes to the usage logs under a projects
// directory.
//
// It uses fsnotify to watch the directory tree and coalesces bursts of
// writes into a single Change once the tree has been quiet for the
// debounce interval. Directories created after Start are watched too.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 500 * time.Millisecond,
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, "~/.claude/projects"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for change := range w.Changes() {
//	    fmt.Printf("%d files changed (%s)\n", len(change.Paths), change.Ops)
//	}
package watcher

import (
	"context"
	"strings"
	"time"
)

// Op describes a file operation type. Values combine as a bit set.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
	OpChmod                 // File permissions changed
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpWrite, "WRITE"},
	{OpRemove, "REMOVE"},
	{OpRename, "RENAME"},
	{OpChmod, "CHMOD"},
}

// String returns the operation names joined by "|".
func (op Op) String() string {
	var names []string
	for _, n := range opNames {
		if op&n.op != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(names, "|")
}

// Change is a coalesced batch of file system events.
type Change struct {
	// Paths lists the affected log files and new directories, sorted.
	Paths []string

	// Ops is the union of the operations seen.
	Ops Op

	// At is when the batch was emitted.
	At time.Time
}

// Watcher provides file system monitoring.
type Watcher interface {
	// Start begins watching root and all of its subdirectories.
	// It returns once the watches are installed; events are processed in
	// the background until ctx is cancelled or Close is called.
	//
	// Returns ErrInvalidPath if root is missing or not a directory.
	Start(ctx context.Context, root string) error

	// Changes returns the channel of coalesced changes.
	//
	// A batch waits until it is received; events arriving meanwhile are
	// merged into it. The channel is closed when the watcher stops.
	Changes() <-chan Change

	// Errors returns the channel for receiving watcher errors.
	//
	// Non-fatal errors are sent to this channel and dropped if it is full.
	// The channel is closed when the watcher stops.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the quiet period before a batch is emitted.
	// Zero emits on the next loop iteration.
	DebounceInterval time.Duration

	// CircuitBreakerThreshold is the number of consecutive fsnotify errors
	// after which the watcher gives up and stops.
	// Default: 5.
	CircuitBreakerThreshold int
}
