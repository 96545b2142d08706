// Package config loads, normalizes, and validates bindery configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// KINDLEGEN. The Config type centralizes every knob the CLI needs, allowing
// staging/output directories and image processing options to be discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
