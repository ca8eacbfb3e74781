// Package identity maps transient sound-server endpoints to identifiers
// that survive reboots and device reconnects.
//
// Sound servers hand out session-scoped endpoint names; persisting ceilings
// keyed by those would silently lose settings across restarts. Identity is
// therefore derived from hardware properties (serial, sysfs path, bus path)
// and only falls back to the device name for virtual endpoints, where a
// rename legitimately means a new identity.
package identity
