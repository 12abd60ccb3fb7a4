package pricing

import "errors"

// Common errors returned by the pricing package.
var (
	// ErrEmptyMatch is returned when a rule has an empty match key.
	ErrEmptyMatch = errors.New("pricing rule match must not be empty")

	// ErrEmptyName is returned when a rule has no display name.
	ErrEmptyName = errors.New("pricing rule name must not be empty")

	// ErrNegativeRate is returned when any rate of a rule is negative.
	ErrNegativeRate = errors.New("pricing rate must be non-negative")

	// ErrInvalidRate is returned when a configured rate is not a decimal number.
	ErrInvalidRate = errors.New("pricing rate is not a decimal number")
)
