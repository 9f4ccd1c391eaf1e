// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the event log backend: memory, sqlite, postgres.
	StoreDriver string `koanf:"store_driver"`

	// DSN configures the database connection for sqlite and postgres drivers.
	DSN string `koanf:"dsn"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// TrendDays sets the default daily trend window.
	TrendDays int `koanf:"trend_days"`

	// ImprovementDays sets the default improvement rate window.
	ImprovementDays int `koanf:"improvement_days"`

	// StreamSendBuffer bounds each feedback-stream listener's send queue.
	StreamSendBuffer int `koanf:"stream_send_buffer"`

	// ImprovementAreas lists the reference labels attached to
	// improvement reports.
	ImprovementAreas []string `koanf:"improvement_areas"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		StoreDriver:      "memory",
		DSN:              "file:pulse.db",
		DedupeSize:       50_000,
		TrendDays:        30,
		ImprovementDays:  90,
		StreamSendBuffer: 16,
		ImprovementAreas: []string{
			"bedtime_routine",
			"emotional_support",
			"behavior_management",
		},
	}
}
