// Package config loads, normalizes, and validates voicecast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY. Provider-specific defaults (endpoint, model) are filled
// in during normalization so downstream code never sees an empty model.
//
// Always obtain settings through this package so inference backends, the
// checkpoint store, and the CLI agree on paths and stage budgets.
package config
