// Package audio defines the boundary to the operating system's sound server
// and provides the pactl-based production implementation.
//
// The Backend interface is the only place volcap touches live audio state:
// enumeration of output endpoints, reading and writing normalized volumes,
// and push notifications for endpoint and volume changes. Everything above
// this package works against the interface, so the enforcement engine is
// testable without a running sound server.
package audio
