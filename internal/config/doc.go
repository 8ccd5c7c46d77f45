// Package config loads, normalizes, and validates the statmatch TOML
// configuration. Loading applies repository defaults first, expands home
// and relative paths, and rejects invalid combinations before any store
// or queue is opened.
package config
