package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Device describes one audio output device in a transport-friendly format.
type Device struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Volume    float64 `json:"volume"`
	MaxVolume float64 `json:"maxVolume"`
	// EffectiveMaxVolume is the enforced ceiling, the lower of the device
	// and global ceilings.
	EffectiveMaxVolume float64 `json:"effectiveMaxVolume"`
	Connected          bool    `json:"connected"`
	// Durable reports whether the id is hardware-backed and survives
	// driver renames.
	Durable bool `json:"durable"`
}

// DeviceListResponse wraps a collection of devices for API responses.
type DeviceListResponse struct {
	Devices []Device `json:"devices"`
	// Revision identifies this snapshot of the device list; it increases
	// whenever the list or any effective ceiling changes.
	Revision uint64 `json:"revision"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// EnforcementStatus summarizes the running engine.
type EnforcementStatus struct {
	GlobalMaxVolume float64 `json:"globalMaxVolume"`
	ConnectedCount  int     `json:"connectedCount"`
	SavedCount      int     `json:"savedCount"`
	Corrections     uint64  `json:"corrections"`
	ClampFailures   uint64  `json:"clampFailures"`
	Revision        uint64  `json:"revision"`
	StartedAt       string  `json:"startedAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool               `json:"running"`
	PID            int                `json:"pid"`
	SettingsDBPath string             `json:"settingsDbPath"`
	LockFilePath   string             `json:"lockFilePath"`
	Enforcement    EnforcementStatus  `json:"enforcement"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}
