package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"volcap/internal/config"
	"volcap/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	return &cfg
}

func mustOpen(t *testing.T, cfg *config.Config) *Store {
	t.Helper()
	store, err := Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadFirstRunYieldsDefaults(t *testing.T) {
	store := mustOpen(t, testConfig(t))

	snapshot, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot.GlobalMaxVolume != DefaultCeiling {
		t.Fatalf("global = %v, want %v", snapshot.GlobalMaxVolume, DefaultCeiling)
	}
	if len(snapshot.Devices) != 0 {
		t.Fatalf("expected no device ceilings, got %d", len(snapshot.Devices))
	}
}

func TestSaveAndReloadAcrossReopen(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	store := mustOpen(t, cfg)
	if err := store.SaveGlobal(ctx, 0.5); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}
	if err := store.SaveDeviceCeiling(ctx, "vc1-abc", 0.4, "Speakers"); err != nil {
		t.Fatalf("SaveDeviceCeiling: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := mustOpen(t, cfg)
	snapshot, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot.GlobalMaxVolume != 0.5 {
		t.Fatalf("global = %v, want 0.5", snapshot.GlobalMaxVolume)
	}
	entry, ok := snapshot.Devices["vc1-abc"]
	if !ok {
		t.Fatal("device ceiling missing after reopen")
	}
	if entry.MaxVolume != 0.4 || entry.DisplayName != "Speakers" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestSaveDeviceCeilingKeepsNameOnEmptyUpdate(t *testing.T) {
	store := mustOpen(t, testConfig(t))
	ctx := context.Background()

	if err := store.SaveDeviceCeiling(ctx, "vc1-abc", 0.4, "Speakers"); err != nil {
		t.Fatalf("SaveDeviceCeiling: %v", err)
	}
	if err := store.SaveDeviceCeiling(ctx, "vc1-abc", 0.3, ""); err != nil {
		t.Fatalf("SaveDeviceCeiling update: %v", err)
	}

	snapshot, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry := snapshot.Devices["vc1-abc"]
	if entry.MaxVolume != 0.3 {
		t.Fatalf("ceiling not updated: %v", entry.MaxVolume)
	}
	if entry.DisplayName != "Speakers" {
		t.Fatalf("display name lost: %q", entry.DisplayName)
	}
}

func TestSaveDeviceCeilingRequiresID(t *testing.T) {
	store := mustOpen(t, testConfig(t))
	if err := store.SaveDeviceCeiling(context.Background(), "  ", 0.5, "x"); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestOpenQuarantinesCorruptDatabase(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.WriteFile(cfg.DatabasePath(), []byte("not a sqlite database at all"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	store := mustOpen(t, cfg)
	snapshot, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load after reset: %v", err)
	}
	if snapshot.GlobalMaxVolume != DefaultCeiling {
		t.Fatalf("expected defaults after corrupt reset, got %v", snapshot.GlobalMaxVolume)
	}

	entries, err := os.ReadDir(cfg.Paths.StateDir)
	if err != nil {
		t.Fatalf("read state dir: %v", err)
	}
	var quarantined bool
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".corrupt-") {
			quarantined = true
		}
	}
	if !quarantined {
		t.Fatal("corrupt database was not quarantined")
	}
}

func TestCheckHealth(t *testing.T) {
	store := mustOpen(t, testConfig(t))
	ctx := context.Background()
	if err := store.SaveDeviceCeiling(ctx, "vc1-abc", 0.4, "Speakers"); err != nil {
		t.Fatalf("SaveDeviceCeiling: %v", err)
	}

	health := store.CheckHealth(ctx)
	if !health.IntegrityCheck {
		t.Fatalf("integrity check failed: %+v", health)
	}
	if health.DeviceCount != 1 {
		t.Fatalf("device count = %d, want 1", health.DeviceCount)
	}
}
