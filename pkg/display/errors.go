package display

import "errors"

// ErrInvalidFormat is returned by ParseFormat for unknown format names.
var ErrInvalidFormat = errors.New("invalid display format: must be table, json, or simple")
