// Package config loads, normalizes, and validates SubInspector configuration.
//
// Settings come from a TOML file found at an explicit path, the XDG config
// location ($XDG_CONFIG_HOME/subinspector/config.toml) or ./subinspector.toml,
// layered over repository defaults. Load always returns a normalized config
// that has passed Validate, so callers can use the values directly.
package config
