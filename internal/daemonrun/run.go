// Package daemonrun assembles and runs the volcapd process: logger, settings
// store, audio backend, engine, daemon, and IPC server, torn down in reverse
// order on SIGINT or SIGTERM.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"volcap/internal/audio"
	"volcap/internal/config"
	"volcap/internal/daemon"
	"volcap/internal/engine"
	"volcap/internal/ipc"
	"volcap/internal/logging"
	"volcap/internal/preflight"
	"volcap/internal/settings"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the volcapd runtime loop and blocks until a shutdown signal.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldCorrelationID, runID))

	for _, result := range preflight.RunAll(signalCtx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldImpact, "enforcement may degrade or fail"))
	}

	pidPath := filepath.Join(cfg.Paths.StateDir, "volcapd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := settings.Open(cfg, logger)
	if err != nil {
		logger.Error("open settings store", logging.Error(err))
		return err
	}
	defer store.Close()

	backend := audio.NewPactlBackend(cfg, logger)

	eng, err := engine.New(cfg, backend, store, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	d, err := daemon.New(cfg, store, eng, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check that no other volcapd instance is running"),
			logging.String(logging.FieldImpact, "ceilings are not enforced"),
		)
	}

	<-signalCtx.Done()
	logger.Info("volcap daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
