// Package logging assembles the structured slog loggers used across volcap.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and defines the standardized field names (device ids, volumes, event
// types) so every component emits data with the same shape. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
