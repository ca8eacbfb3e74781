package testsupport

import (
	"testing"

	"volcap/internal/config"
	"volcap/internal/logging"
	"volcap/internal/settings"
)

// MustOpenStore opens a settings.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()

	store, err := settings.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
