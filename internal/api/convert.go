package api

import (
	"volcap/internal/engine"
)

// FromDeviceView converts an engine snapshot to its API representation.
func FromDeviceView(view engine.DeviceView) Device {
	return Device{
		ID:                 view.StableID,
		Name:               view.Name,
		Volume:             view.Volume,
		MaxVolume:          view.MaxVolume,
		EffectiveMaxVolume: view.EffectiveMax,
		Connected:          view.Connected,
		Durable:            view.Durable,
	}
}

// FromDeviceViews converts a slice of engine snapshots, preserving order.
func FromDeviceViews(views []engine.DeviceView) []Device {
	devices := make([]Device, 0, len(views))
	for _, view := range views {
		devices = append(devices, FromDeviceView(view))
	}
	return devices
}

// FromEngineStatus converts engine counters to their API representation.
func FromEngineStatus(status engine.Status) EnforcementStatus {
	dto := EnforcementStatus{
		GlobalMaxVolume: status.GlobalMaxVolume,
		ConnectedCount:  status.ConnectedCount,
		SavedCount:      status.SavedCount,
		Corrections:     status.Corrections,
		ClampFailures:   status.ClampFailures,
		Revision:        status.Revision,
	}
	if !status.StartedAt.IsZero() {
		dto.StartedAt = status.StartedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}
