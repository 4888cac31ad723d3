package constants

import "errors"

// Configuration errors.
var (
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidPageSize     = errors.New("page size must be positive")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidConfigValue  = errors.New("invalid configuration value")
)

// Argument errors.
var (
	ErrInvalidResourceID = errors.New("resource ID must be a positive integer")
	ErrInvalidPage       = errors.New("page must be a positive integer")
	ErrNotATerminal      = errors.New("browse requires an interactive terminal")
)
