// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config.yaml. Every setting has
// a default except the session secret; environment variables use the
// ALTSCRIBE_ prefix with nested keys joined by underscores.
package config
