// Package config loads, normalizes, and validates quaver configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and the indexing engine need: library and data directories, scanner
// parallelism, duplicate-detection tolerances, and organization templates.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths, resolved worker counts, and clear validation
// errors.
package config
