package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"volcap/internal/audio"
	"volcap/internal/config"
	"volcap/internal/identity"
	"volcap/internal/logging"
	"volcap/internal/registry"
	"volcap/internal/settings"
)

const eventQueueDepth = 64

// backendCallTimeout bounds Volume/SetVolume calls made while e.mu is held.
// It is tighter than the general pactl command timeout so a hung sound
// server cannot stall facade readers and IPC for the full command timeout.
const backendCallTimeout = 2 * time.Second

// pendingCorrection marks a volume write the engine issued itself. A
// notification reporting a volume within epsilon of Value is an echo of that
// write and is absorbed instead of re-evaluated. The marker stays live until
// Expires so a burst of echoes for the same write is absorbed whole.
type pendingCorrection struct {
	Value   float64
	Expires time.Time
}

// Engine enforces per-device and global volume ceilings against one audio
// backend. Backend notifications, periodic rescans, and facade commands all
// mutate state under a single mutex, so ceilings and volumes are never
// observed half-applied.
type Engine struct {
	cfg     *config.Config
	backend audio.Backend
	store   *settings.Store
	logger  *slog.Logger

	epsilon       float64
	correctionTTL time.Duration
	rescanEvery   time.Duration

	mu        sync.Mutex
	reg       *registry.Registry
	globalMax float64
	saved     map[string]settings.DeviceCeiling
	keyIndex  map[string]string
	pending   map[string]pendingCorrection
	revision  uint64

	corrections   uint64
	clampFailures uint64
	startedAt     time.Time

	notify chan struct{}

	subsMu sync.Mutex
	subs   map[chan Update]struct{}

	runCtx context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs an engine. Call Start before using the facade methods.
func New(cfg *config.Config, backend audio.Backend, store *settings.Store, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires config")
	}
	if backend == nil {
		return nil, errors.New("engine requires an audio backend")
	}
	if store == nil {
		return nil, errors.New("engine requires a settings store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:           cfg,
		backend:       backend,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "engine"),
		epsilon:       cfg.Enforcer.Epsilon,
		correctionTTL: time.Duration(cfg.Enforcer.CorrectionTTLMillis) * time.Millisecond,
		rescanEvery:   time.Duration(cfg.Audio.RescanInterval) * time.Second,
		reg:           registry.New(),
		globalMax:     settings.DefaultCeiling,
		saved:         make(map[string]settings.DeviceCeiling),
		keyIndex:      make(map[string]string),
		pending:       make(map[string]pendingCorrection),
		notify:        make(chan struct{}, 1),
		subs:          make(map[chan Update]struct{}),
	}, nil
}

// Start loads persisted ceilings, performs the initial device scan, and
// launches the notification pump, rescan ticker, and update broadcaster.
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	snapshot, err := e.store.Load(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("load settings: %w", err)
	}

	e.mu.Lock()
	e.globalMax = snapshot.GlobalMaxVolume
	for id, entry := range snapshot.Devices {
		e.saved[id] = entry
	}
	e.startedAt = time.Now()
	e.mu.Unlock()

	e.runCtx = runCtx
	e.cancel = cancel

	if err := e.Rescan(runCtx); err != nil {
		e.logger.Warn("initial device scan failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "scan_failed"),
			logging.String(logging.FieldErrorHint, "check that the sound server is running"))
	}

	events := make(chan audio.Event, eventQueueDepth)
	e.wg.Add(4)
	go func() {
		defer e.wg.Done()
		if err := e.backend.Subscribe(runCtx, events); err != nil && runCtx.Err() == nil {
			e.logger.Error("backend subscription ended",
				logging.Error(err),
				logging.String(logging.FieldEventType, "subscribe_lost"),
				logging.String(logging.FieldImpact, "volume changes detected only by periodic rescan"))
		}
	}()
	go e.pumpEvents(runCtx, events)
	go e.rescanLoop(runCtx)
	go e.broadcastLoop(runCtx)

	e.logger.Info("enforcement started",
		logging.Float64("global_max", snapshot.GlobalMaxVolume),
		logging.Int("saved_ceilings", len(snapshot.Devices)),
		logging.String(logging.FieldEventType, "engine_started"))
	return nil
}

// Stop cancels background work and waits for it to drain.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

func (e *Engine) pumpEvents(ctx context.Context, events <-chan audio.Event) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			e.handleEvent(ctx, event)
		}
	}
}

func (e *Engine) rescanLoop(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.rescanEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Rescan(ctx); err != nil && ctx.Err() == nil {
				e.logger.Debug("periodic rescan failed", logging.Error(err))
			}
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, event audio.Event) {
	switch event.Kind {
	case audio.EventSinkChanged:
		if event.Key == "" {
			e.rescanQuiet(ctx)
			return
		}
		e.mu.Lock()
		if id, ok := e.keyIndex[event.Key]; ok {
			e.evaluateLocked(ctx, id)
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()
		e.rescanQuiet(ctx)
	case audio.EventSinkAdded, audio.EventSinkRemoved:
		e.rescanQuiet(ctx)
	case audio.EventServerChanged:
		// Default-output switches carry no enforcement consequence.
		e.logger.Debug("sound server change ignored")
	}
}

func (e *Engine) rescanQuiet(ctx context.Context) {
	if err := e.Rescan(ctx); err != nil && ctx.Err() == nil {
		e.logger.Debug("rescan failed", logging.Error(err))
	}
}

// Rescan reconciles the registry against a fresh enumeration. Arrivals get
// their persisted ceiling reattached and are clamped immediately; vanished
// devices are dropped while their persisted ceiling stays on disk.
func (e *Engine) Rescan(ctx context.Context) error {
	endpoints, err := e.backend.Endpoints(ctx)
	if err != nil {
		return fmt.Errorf("enumerate endpoints: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]struct{}, len(endpoints))
	keyIndex := make(map[string]string, len(endpoints))
	changed := false

	for _, ep := range endpoints {
		resolved := identity.Resolve(ep)
		if _, dup := seen[resolved.StableID]; dup {
			e.logger.Warn("duplicate stable id, ignoring endpoint",
				logging.String(logging.FieldDeviceID, resolved.StableID),
				logging.String(logging.FieldDeviceName, ep.Name),
				logging.String(logging.FieldEventType, "duplicate_identity"))
			continue
		}
		seen[resolved.StableID] = struct{}{}
		keyIndex[ep.Key] = resolved.StableID

		existing, known := e.reg.Get(resolved.StableID)
		ceiling := settings.DefaultCeiling
		switch {
		case known:
			ceiling = existing.Ceiling
		default:
			if entry, ok := e.saved[resolved.StableID]; ok {
				ceiling = entry.MaxVolume
			}
		}

		e.reg.Upsert(registry.Device{
			StableID:   resolved.StableID,
			Key:        ep.Key,
			Name:       ep.Name,
			LiveVolume: ep.Volume,
			Ceiling:    ceiling,
			Durable:    resolved.Durable,
		})

		if !known {
			changed = true
			e.logger.Info("device connected",
				logging.String(logging.FieldDeviceID, resolved.StableID),
				logging.String(logging.FieldDeviceName, ep.Name),
				logging.Float64(logging.FieldCeiling, ceiling),
				logging.Bool("durable", resolved.Durable),
				logging.String(logging.FieldEventType, "device_connected"))
			if err := e.store.TouchDisplayName(ctx, resolved.StableID, ep.Name); err != nil {
				e.logger.Debug("display name refresh failed", logging.Error(err))
			}
			e.applyLocked(ctx, resolved.StableID, ep.Volume)
			continue
		}

		if existing.Name != ep.Name {
			changed = true
			if err := e.store.TouchDisplayName(ctx, resolved.StableID, ep.Name); err != nil {
				e.logger.Debug("display name refresh failed", logging.Error(err))
			}
		}
		e.applyLocked(ctx, resolved.StableID, ep.Volume)
	}

	for _, id := range e.reg.StableIDs() {
		if _, ok := seen[id]; ok {
			continue
		}
		device, _ := e.reg.Get(id)
		e.reg.Remove(id)
		delete(e.pending, id)
		changed = true
		e.logger.Info("device disconnected",
			logging.String(logging.FieldDeviceID, id),
			logging.String(logging.FieldDeviceName, device.Name),
			logging.String(logging.FieldEventType, "device_disconnected"))
	}

	e.keyIndex = keyIndex
	if changed {
		e.markDirtyLocked()
	}
	return nil
}

// evaluateLocked re-reads a device's volume from the backend and enforces
// its effective ceiling. Callers hold e.mu.
func (e *Engine) evaluateLocked(ctx context.Context, stableID string) {
	device, ok := e.reg.Get(stableID)
	if !ok {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, backendCallTimeout)
	volume, err := e.backend.Volume(callCtx, device.Key)
	cancel()
	if err != nil {
		// The endpoint likely vanished mid-flight; the next rescan
		// reconciles the registry.
		e.logger.Debug("volume read failed",
			logging.String(logging.FieldDeviceID, stableID),
			logging.Error(err))
		return
	}
	e.applyLocked(ctx, stableID, volume)
}

// applyLocked enforces the effective ceiling against a reported volume.
// Callers hold e.mu.
func (e *Engine) applyLocked(ctx context.Context, stableID string, reported float64) {
	device, ok := e.reg.Get(stableID)
	if !ok {
		return
	}

	now := time.Now()
	if marker, live := e.pending[stableID]; live {
		if now.After(marker.Expires) {
			delete(e.pending, stableID)
		} else if math.Abs(reported-marker.Value) <= e.epsilon {
			e.reg.SetLiveVolume(stableID, reported)
			return
		}
	}

	e.reg.SetLiveVolume(stableID, reported)

	ceiling := effectiveCeiling(e.globalMax, device.Ceiling)
	if reported <= ceiling+e.epsilon {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, backendCallTimeout)
	err := e.backend.SetVolume(callCtx, device.Key, ceiling)
	cancel()
	if err != nil {
		e.clampFailures++
		e.logger.Warn("volume correction failed",
			logging.String(logging.FieldDeviceID, stableID),
			logging.String(logging.FieldDeviceName, device.Name),
			logging.Float64(logging.FieldVolume, reported),
			logging.Float64(logging.FieldCeiling, ceiling),
			logging.Error(err),
			logging.String(logging.FieldEventType, "clamp_failed"),
			logging.String(logging.FieldImpact, "device may exceed its ceiling until the next change"))
		return
	}

	e.pending[stableID] = pendingCorrection{Value: ceiling, Expires: now.Add(e.correctionTTL)}
	e.corrections++
	e.reg.SetLiveVolume(stableID, ceiling)
	e.logger.Info("volume corrected",
		logging.String(logging.FieldDeviceID, stableID),
		logging.String(logging.FieldDeviceName, device.Name),
		logging.Float64(logging.FieldVolume, reported),
		logging.Float64(logging.FieldCeiling, ceiling),
		logging.String(logging.FieldEventType, "volume_corrected"))
}

func effectiveCeiling(globalMax, deviceMax float64) float64 {
	return math.Min(globalMax, deviceMax)
}
