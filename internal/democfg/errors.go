package democfg

import "errors"

var (
	// ErrNoSourceData indicates an empty config source
	ErrNoSourceData = errors.New("no configuration data provided")

	// ErrParseToml indicates the TOML source could not be parsed
	ErrParseToml = errors.New("failed to parse TOML")

	// ErrInvalidLogLevel indicates an unrecognized log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unrecognized log format
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrInvalidIterations indicates a non-positive iteration count
	ErrInvalidIterations = errors.New("iterations must be greater than zero")

	// ErrInvalidInterval indicates a negative tick interval
	ErrInvalidInterval = errors.New("interval cannot be negative")
)
