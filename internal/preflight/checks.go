package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"volcap/internal/config"
	"volcap/internal/deps"
)

// minFreeBytes is the free-space floor below which the settings database is
// at risk of failing writes.
const minFreeBytes = 16 << 20

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has room left for the
// settings database.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (only %d bytes free)", path, free)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckSoundServer verifies the sound server answers a status query.
func CheckSoundServer(ctx context.Context, cfg *config.Config) Result {
	const name = "Sound server"

	binary := pactlBinary(cfg)
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, binary, "info")
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return Result{Name: name, Detail: "status query timed out (sound server unresponsive)"}
		}
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return Result{Name: name, Detail: detail}
	}
	return Result{Name: name, Passed: true, Detail: serverDescription(string(output))}
}

// CheckSystemDeps evaluates the external binaries the daemon needs. Both the
// daemon status surface and the CLI use this to avoid duplicating the
// requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "pactl",
			Command:     pactlBinary(cfg),
			Description: "Required for volume control and change notifications",
		},
	}
	return deps.CheckBinaries(requirements)
}

func pactlBinary(cfg *config.Config) string {
	if cfg != nil {
		if binary := strings.TrimSpace(cfg.Audio.PactlBinary); binary != "" {
			return binary
		}
	}
	return "pactl"
}

// serverDescription extracts the server name and version from pactl info
// output, falling back to a generic label.
func serverDescription(output string) string {
	name, version := "", ""
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Server Name":
			name = strings.TrimSpace(value)
		case "Server Version":
			version = strings.TrimSpace(value)
		}
	}
	if name == "" {
		return "reachable"
	}
	if version == "" {
		return name
	}
	return name + " " + version
}
