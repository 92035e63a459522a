// Package config provides environment-driven defaults for gridmerge.
// Values come from the process environment, optionally seeded from a .env
// file, and are used as defaults for command-line flags.
package config

// Config holds defaults for CLI flags.
type Config struct {
	// Database is the default SQLite path for persisted runs (default: none)
	Database string `env:"GRIDMERGE_DB"`

	// Output is the default destination for the merged table (default: history.csv)
	Output string `env:"GRIDMERGE_OUTPUT" default:"history.csv"`

	// Addr is the listen address for the serve command (default: 127.0.0.1:8080)
	Addr string `env:"GRIDMERGE_ADDR" default:"127.0.0.1:8080"`

	// LogLevel overrides the slog level: debug, info, warn or error (default: info)
	LogLevel string `env:"GRIDMERGE_LOG_LEVEL" default:"info"`

	// Encoding is the default CSV source encoding (default: utf-8)
	Encoding string `env:"GRIDMERGE_ENCODING" default:"utf-8"`

	// WrapWidth is the column at which report lines wrap (default: 70)
	WrapWidth int `env:"GRIDMERGE_WRAP_WIDTH" default:"70"`
}
