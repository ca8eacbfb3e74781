// Package api defines wire-format types and converters shared by the IPC and
// HTTP API layers. It translates engine views into transport-friendly DTOs so
// external consumers never couple to internal types.
//
// DTOs use camelCase JSON tags. Volumes are normalized fractions in [0, 1];
// timestamps use RFC3339 with milliseconds.
package api
