package engine

import "errors"

// ErrInvalidVolume is returned when a requested ceiling falls outside the
// normalized [0.0, 1.0] range. State is left untouched.
var ErrInvalidVolume = errors.New("max volume must be between 0.0 and 1.0")

// ErrNotFound is returned when a device id matches neither a connected
// endpoint nor a persisted ceiling entry.
var ErrNotFound = errors.New("device not found")
