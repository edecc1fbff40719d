// Package config loads, normalizes, and validates nabscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// NABSCAN_DB_PATH. The Config type centralizes every knob the scan daemon and
// CLI need: store location, scan scheduling policy, the external collaborator
// commands, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
