// Package daemon coordinates the enforcement engine, the udev hotplug
// monitor, and the optional HTTP API behind a single-instance file lock.
package daemon
