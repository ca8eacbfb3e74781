package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEnforcer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Backend {
	case "pactl":
		if c.Audio.PactlBinary == "" {
			return errors.New("audio.pactl_binary must be set for the pactl backend")
		}
	default:
		return fmt.Errorf("audio.backend: unsupported value %q", c.Audio.Backend)
	}
	if c.Audio.CommandTimeout <= 0 {
		return errors.New("audio.command_timeout must be positive")
	}
	if c.Audio.RescanInterval <= 0 {
		return errors.New("audio.rescan_interval must be positive")
	}
	if c.Audio.SubscribeRestartSeconds <= 0 {
		return errors.New("audio.subscribe_restart_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEnforcer() error {
	if c.Enforcer.Epsilon <= 0 || c.Enforcer.Epsilon >= 0.05 {
		return errors.New("enforcer.epsilon must be in (0, 0.05)")
	}
	if c.Enforcer.CorrectionTTLMillis <= 0 {
		return errors.New("enforcer.correction_ttl_millis must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
