package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"volcap/internal/config"
	"volcap/internal/deps"
	"volcap/internal/engine"
	"volcap/internal/logging"
	"volcap/internal/preflight"
	"volcap/internal/settings"
)

// Daemon owns the enforcement engine and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *settings.Store
	engine *engine.Engine

	lockPath string
	lock     *flock.Flock

	netlink *netlinkMonitor
	api     *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	Enforcement    engine.Status
	SettingsDBPath string
	LockFilePath   string
	Dependencies   []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *settings.Store, eng *engine.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || eng == nil {
		return nil, errors.New("daemon requires config, store, and engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		engine:   eng,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.netlink = newNetlinkMonitor(logger, eng.Rescan)

	apiSrv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock and launches enforcement.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another volcap daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start engine: %w", err)
	}

	if d.netlink != nil {
		if err := d.netlink.Start(d.ctx); err != nil {
			d.logger.Warn("hotplug monitor unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "device arrivals detected only by periodic rescan"))
		}
	}
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.logger.Warn("api server failed to start", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("volcap daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

// Stop halts enforcement and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.netlink != nil {
		d.netlink.Stop()
	}
	d.engine.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("volcap daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether enforcement is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Enforcement:    d.engine.Status(),
		SettingsDBPath: d.cfg.DatabasePath(),
		LockFilePath:   d.lockPath,
		Dependencies:   preflight.CheckSystemDeps(d.cfg),
	}
}

// Devices returns the connected device snapshots.
func (d *Daemon) Devices() []engine.DeviceView {
	return d.engine.Devices()
}

// KnownDevices returns connected devices plus disconnected devices with
// persisted ceilings.
func (d *Daemon) KnownDevices() []engine.DeviceView {
	return d.engine.KnownDevices()
}

// GlobalMaxVolume returns the current global ceiling.
func (d *Daemon) GlobalMaxVolume() float64 {
	return d.engine.GlobalMaxVolume()
}

// SetGlobalMaxVolume applies a new global ceiling.
func (d *Daemon) SetGlobalMaxVolume(ctx context.Context, value float64) ([]engine.DeviceView, error) {
	return d.engine.SetGlobalMaxVolume(ctx, value)
}

// SetDeviceMaxVolume applies a per-device ceiling.
func (d *Daemon) SetDeviceMaxVolume(ctx context.Context, stableID string, value float64) (engine.DeviceView, error) {
	return d.engine.SetDeviceMaxVolume(ctx, stableID, value)
}

// WaitForUpdate blocks until the device list revision exceeds since.
func (d *Daemon) WaitForUpdate(ctx context.Context, since uint64) (engine.Update, error) {
	return d.engine.WaitForUpdate(ctx, since)
}

// Revision returns the current device-list revision.
func (d *Daemon) Revision() uint64 {
	return d.engine.Status().Revision
}

// APIAddr returns the bound HTTP API address, empty when disabled.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}
