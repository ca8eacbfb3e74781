package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, read, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if read {
		t.Fatal("expected read=false for missing file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Audio.Backend != "pactl" {
		t.Fatalf("unexpected backend %q", cfg.Audio.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
state_dir = "` + dir + `/state"

[enforcer]
epsilon = 0.01

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, read, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !read {
		t.Fatal("expected config file to be read")
	}
	if cfg.Paths.StateDir != filepath.Join(dir, "state") {
		t.Fatalf("unexpected state dir %q", cfg.Paths.StateDir)
	}
	if cfg.Enforcer.Epsilon != 0.01 {
		t.Fatalf("unexpected epsilon %v", cfg.Enforcer.Epsilon)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format not normalized: %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths\nstate_dir="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Audio.Backend = "jack" }, "audio.backend"},
		{"zero epsilon", func(c *Config) { c.Enforcer.Epsilon = 0 }, "enforcer.epsilon"},
		{"huge epsilon", func(c *Config) { c.Enforcer.Epsilon = 0.5 }, "enforcer.epsilon"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"empty state dir", func(c *Config) { c.Paths.StateDir = "" }, "paths.state_dir"},
		{"zero rescan", func(c *Config) { c.Audio.RescanInterval = 0 }, "audio.rescan_interval"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.StateDir = "/tmp/vc"
	cfg.Paths.LogDir = "/tmp/vc/logs"
	if got := cfg.SocketPath(); got != "/tmp/vc/volcap.sock" {
		t.Fatalf("SocketPath: %q", got)
	}
	if got := cfg.DatabasePath(); got != "/tmp/vc/settings.db" {
		t.Fatalf("DatabasePath: %q", got)
	}
	if got := cfg.LockPath(); got != "/tmp/vc/volcapd.lock" {
		t.Fatalf("LockPath: %q", got)
	}
	if got := cfg.LogPath(); got != "/tmp/vc/logs/volcapd.log" {
		t.Fatalf("LogPath: %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error on second write")
	}
	cfg, _, read, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !read {
		t.Fatal("expected sample to be read")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
