// Package config loads and validates sprocket's TOML configuration.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/sprocket/config.toml, then ./sprocket.toml. When no file
// exists the built-in defaults apply. Every regex in the file is
// compiled during Validate so ingest never hits a malformed pattern.
package config
