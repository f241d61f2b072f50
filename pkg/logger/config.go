package logger

import "io"

// Config holds the logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string

	// Environment "production" selects JSON output; anything else is the
	// colored console format.
	Environment string

	// Output defaults to stdout. The CLI passes stderr so that logs never
	// interleave with command output.
	Output io.Writer
}

// DefaultConfig is used by Default until SetDefault is called.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Environment: "development",
	}
}
