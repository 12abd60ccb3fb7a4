package ingest

import "github.com/0xmhha/token-cost/pkg/discovery"

// ErrSourceNotFound is returned when the projects directory does not exist.
// It is the only condition that aborts a run.
var ErrSourceNotFound = discovery.ErrSourceNotFound
