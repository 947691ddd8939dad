// Package config resolves the server configuration from command line
// flags, RBSET_* environment variables and an optional config file.
package config
