// Package config loads and validates the TOML configuration shared by the
// volcap daemon and CLI.
//
// A missing config file is not an error; defaults apply so the daemon can
// start on a fresh machine with no setup. Paths support ~ expansion and the
// VOLCAP_CONFIG environment variable overrides the default file location.
package config
