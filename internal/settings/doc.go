// Package settings persists ceiling configuration in a SQLite database
// under the state directory.
//
// Writes are durable and atomic (WAL journaling, one statement per change),
// so a crash between writes never corrupts previously saved ceilings. An
// unreadable database is quarantined and recreated with defaults at startup
// rather than blocking the daemon.
package settings
