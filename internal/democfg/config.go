// Package democfg loads the TOML configuration for the steploop demo
// loop: log settings plus the countdown parameters the run command feeds
// into its step function.
package democfg

import (
	"fmt"
	"os"
	"strings"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that unmarshals from a TOML string like "10ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// LoopConfig describes the demo countdown loop.
type LoopConfig struct {
	// Iterations is the number of step invocations before the loop
	// terminates naturally.
	Iterations int `toml:"iterations"`

	// Interval is an optional sleep inside each step invocation.
	Interval Duration `toml:"interval"`

	// LogEvery emits a progress log line every N iterations; zero
	// disables progress logging.
	LogEvery int `toml:"log_every"`
}

// Config is the root of the demo configuration file.
type Config struct {
	LogLevel  string     `toml:"log_level"`
	LogFormat string     `toml:"log_format"`
	Loop      LoopConfig `toml:"loop"`
}

// NewConfig loads and validates a demo configuration from a TOML file.
func NewConfig(path string) (*Config, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return NewConfigFromBytes(source)
}

// NewConfigFromBytes loads and validates a demo configuration from raw TOML.
func NewConfigFromBytes(source []byte) (*Config, error) {
	if len(source) == 0 {
		return nil, ErrNoSourceData
	}

	cfg := Default()
	if err := gotoml.Unmarshal(source, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseToml, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Loop: LoopConfig{
			Iterations: 100,
			Interval:   Duration(10 * time.Millisecond),
			LogEvery:   10,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}

	if c.Loop.Iterations <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, c.Loop.Iterations)
	}

	if c.Loop.Interval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, c.Loop.Interval.Duration())
	}

	return nil
}
