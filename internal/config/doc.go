// Package config loads, validates, and normalizes crate's TOML
// configuration. Defaults are complete enough that crate runs without a
// config file; Load layers the user's file on top of Default and expands all
// path fields.
package config
