// Package config loads, normalizes, and validates catalogd configuration.
//
// Configuration is TOML with a single file resolved from an explicit path,
// ~/.config/catalogd/config.toml, or ./catalogd.toml in that order. Defaults
// cover every field so catalogd runs without a config file when the LLM key
// is provided via the environment.
package config
