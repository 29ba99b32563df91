// Package config loads, normalizes, and validates vidfetch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the PORT environment override. The
// Config type centralizes every knob the server and CLI need so the download
// directory, extractor backend, and logging setup are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
