package registry

import "sort"

// Device is one currently connected output endpoint tracked by the engine.
type Device struct {
	// StableID survives reboots and reconnects; unique within the registry.
	StableID string
	// Key is the backend endpoint name, valid for this session only. The
	// registry entry is its exclusive owner.
	Key string
	// Name is the human-readable label. It may change between sessions
	// without invalidating StableID.
	Name string
	// LiveVolume mirrors the last volume reported by the backend.
	LiveVolume float64
	// Ceiling is this device's configured maximum, 1.0 when unset.
	Ceiling float64
	// Durable reports whether StableID is hardware-backed.
	Durable bool
}

// Registry is the in-memory table of connected devices. It performs no
// locking of its own; all mutation must go through the engine's
// single-writer serialization.
type Registry struct {
	devices map[string]*Device
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// Get returns a snapshot of the device with the given stable id.
func (r *Registry) Get(stableID string) (Device, bool) {
	device, ok := r.devices[stableID]
	if !ok {
		return Device{}, false
	}
	return *device, true
}

// Upsert inserts or replaces a device entry keyed by its stable id.
func (r *Registry) Upsert(device Device) {
	copied := device
	r.devices[device.StableID] = &copied
}

// SetLiveVolume updates the mirrored volume of a device if present.
func (r *Registry) SetLiveVolume(stableID string, volume float64) bool {
	device, ok := r.devices[stableID]
	if !ok {
		return false
	}
	device.LiveVolume = volume
	return true
}

// SetCeiling updates the configured ceiling of a device if present.
func (r *Registry) SetCeiling(stableID string, ceiling float64) bool {
	device, ok := r.devices[stableID]
	if !ok {
		return false
	}
	device.Ceiling = ceiling
	return true
}

// Remove drops a device entry. The persisted ceiling for the id is kept by
// the settings store, not here.
func (r *Registry) Remove(stableID string) bool {
	if _, ok := r.devices[stableID]; !ok {
		return false
	}
	delete(r.devices, stableID)
	return true
}

// Len reports the number of connected devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// StableIDs returns the ids of all connected devices in unspecified order.
func (r *Registry) StableIDs() []string {
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	return ids
}

// List returns value snapshots of all devices ordered by display name, then
// stable id for names that collide.
func (r *Registry) List() []Device {
	list := make([]Device, 0, len(r.devices))
	for _, device := range r.devices {
		list = append(list, *device)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].StableID < list[j].StableID
	})
	return list
}
