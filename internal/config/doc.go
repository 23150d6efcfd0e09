// Package config loads, normalizes, and validates tempo configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TEMPO_NTFY_TOPIC. The Config type centralizes every knob the daemon and CLI
// need: data/output/log directories, the pipeline counter set, collection
// behaviour, and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a validated counter list, and clear validation errors.
package config
