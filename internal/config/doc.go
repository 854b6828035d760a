// Package config loads, normalizes, and validates texthighlight configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// TEXTHIGHLIGHT_ALIGN_SCRIPT. The Config type centralizes every knob the CLI,
// the HTTP server, and the alignment pipeline need.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
