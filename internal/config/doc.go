// Package config loads, validates, and normalizes podbrief configuration.
//
// Configuration is TOML with defaults suitable for a single-user install.
// Load resolves the file location (explicit path, then
// ~/.config/podbrief/config.toml, then ./podbrief.toml), applies environment
// fallbacks for secrets, expands home-relative paths, and validates the
// result so downstream packages can rely on invariants like non-empty
// credentials and positive intervals.
package config
