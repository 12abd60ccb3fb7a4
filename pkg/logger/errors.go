package logger

import "errors"

var (
	// ErrInvalidLevel is returned for a level name other than debug, info,
	// warn, error or off.
	ErrInvalidLevel = errors.New("invalid log level")

	// ErrInvalidFormat is returned for a format other than text or json.
	ErrInvalidFormat = errors.New("invalid log format")
)
