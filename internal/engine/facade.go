package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"volcap/internal/logging"
	"volcap/internal/settings"
)

// DeviceView is a read-only snapshot of one device for presentation.
type DeviceView struct {
	StableID string
	Name     string
	// Volume is the last observed output volume. Zero when disconnected.
	Volume float64
	// MaxVolume is the configured per-device ceiling.
	MaxVolume float64
	// EffectiveMax is the lower of MaxVolume and the global ceiling; it is
	// the value actually enforced.
	EffectiveMax float64
	Connected    bool
	Durable      bool
}

// Status summarizes the engine for health and diagnostics surfaces.
type Status struct {
	StartedAt       time.Time
	GlobalMaxVolume float64
	ConnectedCount  int
	SavedCount      int
	Corrections     uint64
	ClampFailures   uint64
	Revision        uint64
}

// Devices returns the currently connected devices ordered by name then id.
func (e *Engine) Devices() []DeviceView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.devicesLocked()
}

// KnownDevices returns connected devices plus disconnected devices that
// still carry a persisted ceiling, ordered by name then id.
func (e *Engine) KnownDevices() []DeviceView {
	e.mu.Lock()
	defer e.mu.Unlock()

	views := e.devicesLocked()
	connected := make(map[string]struct{}, len(views))
	for _, view := range views {
		connected[view.StableID] = struct{}{}
	}
	for id, entry := range e.saved {
		if _, ok := connected[id]; ok {
			continue
		}
		views = append(views, DeviceView{
			StableID:     id,
			Name:         entry.DisplayName,
			MaxVolume:    entry.MaxVolume,
			EffectiveMax: effectiveCeiling(e.globalMax, entry.MaxVolume),
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Name != views[j].Name {
			return views[i].Name < views[j].Name
		}
		return views[i].StableID < views[j].StableID
	})
	return views
}

// GlobalMaxVolume returns the current global ceiling.
func (e *Engine) GlobalMaxVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.globalMax
}

// Status returns a snapshot of engine counters.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		StartedAt:       e.startedAt,
		GlobalMaxVolume: e.globalMax,
		ConnectedCount:  e.reg.Len(),
		SavedCount:      len(e.saved),
		Corrections:     e.corrections,
		ClampFailures:   e.clampFailures,
		Revision:        e.revision,
	}
}

// SetGlobalMaxVolume validates and applies a new global ceiling, re-checking
// every connected device against it. The value is persisted best-effort:
// a storage failure is logged and the in-memory ceiling still takes effect.
func (e *Engine) SetGlobalMaxVolume(ctx context.Context, value float64) ([]DeviceView, error) {
	if err := validateVolume(value); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	changed := value != e.globalMax
	if err := e.store.SaveGlobal(ctx, value); err != nil {
		e.logger.Warn("persisting global ceiling failed, applying in memory",
			logging.Float64(logging.FieldCeiling, value),
			logging.Error(err),
			logging.String(logging.FieldEventType, "persist_failed"),
			logging.String(logging.FieldImpact, "ceiling resets after restart"))
	}
	e.globalMax = value
	for _, id := range e.reg.StableIDs() {
		// A ceiling change must re-clamp even when the current volume is
		// the echo of an earlier correction.
		delete(e.pending, id)
		e.evaluateLocked(ctx, id)
	}
	if changed {
		e.logger.Info("global ceiling updated",
			logging.Float64(logging.FieldCeiling, value),
			logging.String(logging.FieldEventType, "global_ceiling_set"))
		e.markDirtyLocked()
	}
	return e.devicesLocked(), nil
}

// SetDeviceMaxVolume validates and applies a per-device ceiling. The id may
// belong to a disconnected device with a persisted ceiling; unknown ids
// return ErrNotFound. Persistence failures are logged and the in-memory
// ceiling still takes effect.
func (e *Engine) SetDeviceMaxVolume(ctx context.Context, stableID string, value float64) (DeviceView, error) {
	if err := validateVolume(value); err != nil {
		return DeviceView{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if device, ok := e.reg.Get(stableID); ok {
		if err := e.store.SaveDeviceCeiling(ctx, stableID, value, device.Name); err != nil {
			e.logger.Warn("persisting device ceiling failed, applying in memory",
				logging.String(logging.FieldDeviceID, stableID),
				logging.Float64(logging.FieldCeiling, value),
				logging.Error(err),
				logging.String(logging.FieldEventType, "persist_failed"),
				logging.String(logging.FieldImpact, "ceiling resets after restart"))
		}
		e.saved[stableID] = settings.DeviceCeiling{StableID: stableID, MaxVolume: value, DisplayName: device.Name}
		changed := device.Ceiling != value
		e.reg.SetCeiling(stableID, value)
		// A ceiling change must re-clamp even when the current volume is
		// the echo of an earlier correction.
		delete(e.pending, stableID)
		e.evaluateLocked(ctx, stableID)
		if changed {
			e.logger.Info("device ceiling updated",
				logging.String(logging.FieldDeviceID, stableID),
				logging.String(logging.FieldDeviceName, device.Name),
				logging.Float64(logging.FieldCeiling, value),
				logging.String(logging.FieldEventType, "device_ceiling_set"))
			e.markDirtyLocked()
		}
		return e.viewLocked(stableID), nil
	}

	if entry, ok := e.saved[stableID]; ok {
		if err := e.store.SaveDeviceCeiling(ctx, stableID, value, entry.DisplayName); err != nil {
			e.logger.Warn("persisting device ceiling failed, applying in memory",
				logging.String(logging.FieldDeviceID, stableID),
				logging.Float64(logging.FieldCeiling, value),
				logging.Error(err),
				logging.String(logging.FieldEventType, "persist_failed"))
		}
		entry.MaxVolume = value
		e.saved[stableID] = entry
		return DeviceView{
			StableID:     stableID,
			Name:         entry.DisplayName,
			MaxVolume:    value,
			EffectiveMax: effectiveCeiling(e.globalMax, value),
		}, nil
	}

	return DeviceView{}, fmt.Errorf("%w: %s", ErrNotFound, stableID)
}

func (e *Engine) devicesLocked() []DeviceView {
	devices := e.reg.List()
	views := make([]DeviceView, 0, len(devices))
	for _, device := range devices {
		views = append(views, DeviceView{
			StableID:     device.StableID,
			Name:         device.Name,
			Volume:       device.LiveVolume,
			MaxVolume:    device.Ceiling,
			EffectiveMax: effectiveCeiling(e.globalMax, device.Ceiling),
			Connected:    true,
			Durable:      device.Durable,
		})
	}
	return views
}

func (e *Engine) viewLocked(stableID string) DeviceView {
	device, ok := e.reg.Get(stableID)
	if !ok {
		return DeviceView{StableID: stableID}
	}
	return DeviceView{
		StableID:     device.StableID,
		Name:         device.Name,
		Volume:       device.LiveVolume,
		MaxVolume:    device.Ceiling,
		EffectiveMax: effectiveCeiling(e.globalMax, device.Ceiling),
		Connected:    true,
		Durable:      device.Durable,
	}
}

func validateVolume(value float64) error {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidVolume, value)
	}
	return nil
}
