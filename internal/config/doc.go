// Package config loads, normalizes, and validates keepsake configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and lower-cases the extension tables that drive
// conversion and archive profile selection. The Config type centralizes every
// knob the pipeline needs (tool paths, quality parameters, pool size, volume
// size) so no package keeps process-wide mutable settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
