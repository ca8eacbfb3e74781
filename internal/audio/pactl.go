package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"volcap/internal/config"
	"volcap/internal/logging"
)

// pulseVolumeNorm is the raw value PulseAudio reports for 100% volume.
const pulseVolumeNorm = 65536

type commandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.Output()
}

// PactlBackend talks to PulseAudio or PipeWire through the pactl utility.
type PactlBackend struct {
	binary         string
	commandTimeout time.Duration
	restartBackoff time.Duration
	runner         commandRunner
	logger         *slog.Logger

	mu        sync.Mutex
	indexKeys map[int]string
}

// NewPactlBackend constructs a backend from configuration.
func NewPactlBackend(cfg *config.Config, logger *slog.Logger) *PactlBackend {
	binary := "pactl"
	commandTimeout := 10 * time.Second
	restartBackoff := 5 * time.Second
	if cfg != nil {
		if cfg.Audio.PactlBinary != "" {
			binary = cfg.Audio.PactlBinary
		}
		if cfg.Audio.CommandTimeout > 0 {
			commandTimeout = time.Duration(cfg.Audio.CommandTimeout) * time.Second
		}
		if cfg.Audio.SubscribeRestartSeconds > 0 {
			restartBackoff = time.Duration(cfg.Audio.SubscribeRestartSeconds) * time.Second
		}
	}
	return &PactlBackend{
		binary:         binary,
		commandTimeout: commandTimeout,
		restartBackoff: restartBackoff,
		runner:         execCommandRunner{},
		logger:         logging.NewComponentLogger(logger, "pactl"),
		indexKeys:      make(map[int]string),
	}
}

type pactlChannelVolume struct {
	Value uint64 `json:"value"`
}

type pactlSink struct {
	Index       int                           `json:"index"`
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	Mute        bool                          `json:"mute"`
	Volume      map[string]pactlChannelVolume `json:"volume"`
	Properties  map[string]string             `json:"properties"`
}

// Endpoints enumerates render endpoints via `pactl list sinks` and refreshes
// the index-to-key mapping used to resolve subscribe events.
func (b *PactlBackend) Endpoints(ctx context.Context) ([]Endpoint, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.commandTimeout)
	defer cancel()

	output, err := b.runner.Output(runCtx, b.binary, "--format=json", "list", "sinks")
	if err != nil {
		return nil, fmt.Errorf("pactl list sinks: %w", err)
	}

	var sinks []pactlSink
	if err := json.Unmarshal(output, &sinks); err != nil {
		return nil, fmt.Errorf("parse pactl sink list: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(sinks))
	indexKeys := make(map[int]string, len(sinks))
	for _, sink := range sinks {
		if strings.TrimSpace(sink.Name) == "" {
			continue
		}
		name := strings.TrimSpace(sink.Description)
		if name == "" {
			name = sink.Name
		}
		endpoints = append(endpoints, Endpoint{
			Key:        sink.Name,
			Name:       name,
			Volume:     sinkVolumeFraction(sink.Volume),
			Properties: sink.Properties,
		})
		indexKeys[sink.Index] = sink.Name
	}

	b.mu.Lock()
	b.indexKeys = indexKeys
	b.mu.Unlock()

	return endpoints, nil
}

// Volume reads one endpoint's volume via `pactl get-sink-volume`.
func (b *PactlBackend) Volume(ctx context.Context, key string) (float64, error) {
	runCtx, cancel := context.WithTimeout(ctx, b.commandTimeout)
	defer cancel()

	output, err := b.runner.Output(runCtx, b.binary, "get-sink-volume", key)
	if err != nil {
		return 0, fmt.Errorf("pactl get-sink-volume %s: %w", key, err)
	}
	volume, ok := parseVolumeOutput(string(output))
	if !ok {
		return 0, fmt.Errorf("pactl get-sink-volume %s: unparseable output", key)
	}
	return volume, nil
}

// SetVolume writes one endpoint's volume as a raw PulseAudio value to avoid
// the 1%% quantization of percent arguments.
func (b *PactlBackend) SetVolume(ctx context.Context, key string, volume float64) error {
	if math.IsNaN(volume) || volume < 0 {
		return fmt.Errorf("invalid volume %v", volume)
	}
	raw := int(math.Round(volume * pulseVolumeNorm))

	runCtx, cancel := context.WithTimeout(ctx, b.commandTimeout)
	defer cancel()

	if _, err := b.runner.Output(runCtx, b.binary, "set-sink-volume", key, strconv.Itoa(raw)); err != nil {
		return fmt.Errorf("pactl set-sink-volume %s: %w", key, err)
	}
	return nil
}

func (b *PactlBackend) keyForIndex(index int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key, ok := b.indexKeys[index]
	return key, ok
}

func (b *PactlBackend) forgetIndex(index int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := b.indexKeys[index]
	delete(b.indexKeys, index)
	return key
}

// sinkVolumeFraction reduces a per-channel volume map to the loudest channel
// as a fraction of the 100%% mark. Values above 1.0 are possible when the
// sound server allows over-amplification; enforcement clamps them down.
func sinkVolumeFraction(channels map[string]pactlChannelVolume) float64 {
	var max uint64
	for _, ch := range channels {
		if ch.Value > max {
			max = ch.Value
		}
	}
	return float64(max) / pulseVolumeNorm
}

// parseVolumeOutput extracts the loudest raw channel value from
// `pactl get-sink-volume` text output, e.g.
//
//	Volume: front-left: 39813 /  61% / -12.99 dB,   front-right: 39813 /  61% / -12.99 dB
func parseVolumeOutput(output string) (float64, bool) {
	var max int64 = -1
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Volume:") {
			continue
		}
		for _, segment := range strings.Split(strings.TrimPrefix(line, "Volume:"), ",") {
			fields := strings.Split(segment, "/")
			if len(fields) == 0 {
				continue
			}
			head := strings.TrimSpace(fields[0])
			// "front-left: 39813" or a bare value for mono formats.
			if idx := strings.LastIndex(head, ":"); idx >= 0 {
				head = strings.TrimSpace(head[idx+1:])
			}
			value, err := strconv.ParseInt(head, 10, 64)
			if err != nil {
				continue
			}
			if value > max {
				max = value
			}
		}
	}
	if max < 0 {
		return 0, false
	}
	return float64(max) / pulseVolumeNorm, true
}
