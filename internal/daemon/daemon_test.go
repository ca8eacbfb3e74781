package daemon_test

import (
	"context"
	"strings"
	"testing"

	"volcap/internal/audio"
	"volcap/internal/config"
	"volcap/internal/daemon"
	"volcap/internal/engine"
	"volcap/internal/logging"
	"volcap/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config, backend *testsupport.FakeBackend) *daemon.Daemon {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	eng, err := engine.New(cfg, backend, store, logging.NewNop())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	d, err := daemon.New(cfg, store, eng, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	backend := testsupport.NewFakeBackend()
	backend.AddEndpoint(audio.Endpoint{
		Key:        "sink-1",
		Name:       "Speakers",
		Volume:     0.4,
		Properties: map[string]string{"device.serial": "SER-1"},
	})
	d := newTestDaemon(t, cfg, backend)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon should report running")
	}
	if err := d.Start(ctx); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("second start should fail, got %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || status.PID <= 0 {
		t.Fatalf("unexpected status: %#v", status)
	}
	if status.SettingsDBPath != cfg.DatabasePath() {
		t.Fatalf("settings path mismatch: %s", status.SettingsDBPath)
	}
	if status.Enforcement.ConnectedCount != 1 {
		t.Fatalf("expected one connected device, got %d", status.Enforcement.ConnectedCount)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon should stop")
	}
	d.Stop()
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	first := newTestDaemon(t, cfg, testsupport.NewFakeBackend())
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first daemon start: %v", err)
	}

	second := newTestDaemon(t, cfg, testsupport.NewFakeBackend())
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
}

func TestDaemonCeilingFacade(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	backend := testsupport.NewFakeBackend()
	backend.AddEndpoint(audio.Endpoint{
		Key:        "sink-1",
		Name:       "Speakers",
		Volume:     0.9,
		Properties: map[string]string{"device.serial": "SER-1"},
	})
	d := newTestDaemon(t, cfg, backend)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	devices, err := d.SetGlobalMaxVolume(ctx, 0.5)
	if err != nil {
		t.Fatalf("SetGlobalMaxVolume: %v", err)
	}
	if len(devices) != 1 || devices[0].Volume != 0.5 {
		t.Fatalf("global ceiling not enforced: %#v", devices)
	}

	view, err := d.SetDeviceMaxVolume(ctx, devices[0].StableID, 0.3)
	if err != nil {
		t.Fatalf("SetDeviceMaxVolume: %v", err)
	}
	if view.EffectiveMax != 0.3 || view.Volume != 0.3 {
		t.Fatalf("device ceiling not enforced: %#v", view)
	}
	if d.GlobalMaxVolume() != 0.5 {
		t.Fatalf("global ceiling drifted: %v", d.GlobalMaxVolume())
	}
}
