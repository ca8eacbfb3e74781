// Command volcapd runs the volume ceiling enforcement daemon standalone,
// without the volcap CLI wrapper. It reads the default configuration, starts
// enforcement, and serves IPC until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"volcap/internal/config"
	"volcap/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override the configured log level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
