// Package config loads, normalizes, and validates the mediasort
// configuration: the main TOML file plus the per-source scan configuration
// files referenced from it. Validation happens entirely at load time; a
// Snapshot handed to a scan run is immutable for that run.
package config
