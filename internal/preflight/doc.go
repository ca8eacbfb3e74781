// Package preflight verifies the environment before the daemon starts
// enforcing: directory access, disk headroom for the settings database, and
// sound-server reachability.
package preflight
