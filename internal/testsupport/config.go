package testsupport

import (
	"path/filepath"
	"testing"

	"volcap/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Audio.RescanInterval = 3600

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithEpsilon overrides the enforcer tolerance on the test config.
func WithEpsilon(epsilon float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enforcer.Epsilon = epsilon
	}
}

// WithCorrectionTTL overrides the pending-correction lifetime on the test
// config.
func WithCorrectionTTL(millis int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enforcer.CorrectionTTLMillis = millis
	}
}
