// Package config loads the mailauth binaries' settings.
//
// Sources, lowest precedence first: built-in defaults, an optional YAML file
// (--config), a .env file (--env-file, or ./.env when present), MAILAUTH_*
// environment variables and command-line flags. Nested keys map to env
// names by upper-casing and replacing dots with underscores:
// auth.access_ttl is MAILAUTH_AUTH_ACCESS_TTL.
package config
