package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Audio contains configuration for the sound-server backend.
type Audio struct {
	Backend                 string `toml:"backend"`
	PactlBinary             string `toml:"pactl_binary"`
	CommandTimeout          int    `toml:"command_timeout"`
	RescanInterval          int    `toml:"rescan_interval"`
	SubscribeRestartSeconds int    `toml:"subscribe_restart_seconds"`
}

// Enforcer contains tuning for volume clamp evaluation.
type Enforcer struct {
	// Epsilon is the tolerance used both when deciding whether a reported
	// volume exceeds a ceiling and when matching a notification against a
	// pending correction. Must be below the backend's volume step.
	Epsilon float64 `toml:"epsilon"`
	// CorrectionTTLMillis bounds how long a pending correction marker may
	// absorb echo notifications before it expires.
	CorrectionTTLMillis int `toml:"correction_ttl_millis"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the top-level volcap configuration.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Audio    Audio    `toml:"audio"`
	Enforcer Enforcer `toml:"enforcer"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the standard location of the config file.
func DefaultConfigPath() (string, error) {
	if env := strings.TrimSpace(os.Getenv("VOLCAP_CONFIG")); env != "" {
		return ExpandPath(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "volcap", "config.toml"), nil
}

// Load reads the configuration from path, falling back to the default
// location when path is empty. A missing file yields defaults rather than an
// error; the second return value is the resolved path and the third reports
// whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	var err error
	if resolved == "" {
		resolved, err = DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
	} else if resolved, err = ExpandPath(resolved); err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	data, readErr := os.ReadFile(resolved)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			if err := cfg.normalize(); err != nil {
				return nil, resolved, false, err
			}
			return &cfg, resolved, false, nil
		}
		return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, readErr)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, false, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, resolved, false, err
	}
	return &cfg, resolved, true, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	resolved, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(resolved); statErr == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("stat config path: %w", statErr)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the state and log directories if needed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the unix socket path used by the IPC server.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "volcap.sock")
}

// DatabasePath returns the settings database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "settings.db")
}

// LockPath returns the daemon single-instance lock path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "volcapd.lock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "volcapd.log")
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Audio.Backend = strings.ToLower(strings.TrimSpace(c.Audio.Backend))
	c.Audio.PactlBinary = strings.TrimSpace(c.Audio.PactlBinary)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// ExpandPath resolves ~ prefixes and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
