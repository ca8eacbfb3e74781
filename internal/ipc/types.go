package ipc

import "volcap/internal/api"

// Device mirrors the HTTP API device DTO for internal IPC callers.
type Device = api.Device

// DependencyStatus describes availability of an external dependency.
type DependencyStatus = api.DependencyStatus

// EnforcementStatus summarizes the running engine.
type EnforcementStatus = api.EnforcementStatus

// StartRequest resumes ceiling enforcement.
type StartRequest struct{}

// StartResponse indicates whether enforcement was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest halts ceiling enforcement.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/enforcement status information.
type StatusResponse struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	Enforcement    EnforcementStatus  `json:"enforcement"`
	SettingsDBPath string             `json:"settings_db_path"`
	LockPath       string             `json:"lock_path"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// DevicesRequest lists devices. IncludeDisconnected adds devices that are
// unplugged but carry a persisted ceiling.
type DevicesRequest struct {
	IncludeDisconnected bool `json:"include_disconnected"`
}

// DevicesResponse contains device entries and the list revision.
type DevicesResponse struct {
	Devices  []Device `json:"devices"`
	Revision uint64   `json:"revision"`
}

// GlobalMaxRequest fetches the global ceiling.
type GlobalMaxRequest struct{}

// GlobalMaxResponse carries the global ceiling.
type GlobalMaxResponse struct {
	MaxVolume float64 `json:"max_volume"`
}

// SetGlobalMaxRequest updates the global ceiling.
type SetGlobalMaxRequest struct {
	MaxVolume float64 `json:"max_volume"`
}

// SetGlobalMaxResponse returns the device list after enforcement.
type SetGlobalMaxResponse struct {
	Devices  []Device `json:"devices"`
	Revision uint64   `json:"revision"`
}

// SetDeviceMaxRequest updates one device's ceiling by stable id.
type SetDeviceMaxRequest struct {
	ID        string  `json:"id"`
	MaxVolume float64 `json:"max_volume"`
}

// SetDeviceMaxResponse returns the updated device.
type SetDeviceMaxResponse struct {
	Device Device `json:"device"`
}

// DevicesWaitRequest long-polls for a device-list change past SinceRevision.
type DevicesWaitRequest struct {
	SinceRevision uint64 `json:"since_revision"`
	WaitMillis    int    `json:"wait_millis"`
}

// DevicesWaitResponse returns the device list. Changed reports whether the
// revision advanced before the wait expired.
type DevicesWaitResponse struct {
	Devices  []Device `json:"devices"`
	Revision uint64   `json:"revision"`
	Changed  bool     `json:"changed"`
}
