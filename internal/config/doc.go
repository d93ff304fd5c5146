// Package config loads, normalizes, and validates storypack configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STORYPACK_BASE. The Config type centralizes every knob the pipeline and CLI
// need, so the story base directory, render backend order, and encoder knobs
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
