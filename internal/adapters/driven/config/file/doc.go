// Package file provides file-based configuration for bookingest.
//
// ConfigStore reads and writes ~/.bookingest/config.toml. Settings resolves
// the typed runtime configuration from that file, .env files and
// BOOKINGEST_* environment variables.
package file
