// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and the environment.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains the ambient knobs shared by the report verbs. Everything a
// single verb needs beyond this (input paths, axis limits, grid shape) is a
// per-verb flag.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DPI is the default raster resolution for PNG output.
	DPI int `koanf:"dpi"`

	// Labels maps channel ids to their friendly tier names.
	Labels map[string]string `koanf:"labels"`

	// PeerFilter is the substring selecting the container role aggregated
	// by the docker-stats verb.
	PeerFilter string `koanf:"peer_filter"`

	// MetricsFile, when non-empty, receives per-run counters in the
	// Prometheus textfile-collector format.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		DPI:      300,
		Labels: map[string]string{
			"13_64_128":  "mini",
			"14_73_224":  "mid",
			"15_128_256": "rich",
		},
		PeerFilter: "peer0",
	}
}
