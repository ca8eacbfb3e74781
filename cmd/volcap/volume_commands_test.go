package main

import (
	"testing"
	"time"
)

func TestDevicesAndCeilingCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.AddEndpoint(testEndpoint("sink-1", "Speakers", "SER-1", 0.4))
	env.backend.AddEndpoint(testEndpoint("sink-2", "Headphones", "SER-2", 0.6))

	if _, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return len(env.daemon.Devices()) == 2 })

	out, _, err := runCLI(t, []string{"devices"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	requireContains(t, out, "Speakers")
	requireContains(t, out, "Headphones")

	out, _, err = runCLI(t, []string{"devices", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("devices --json: %v", err)
	}
	requireContains(t, out, "\"maxVolume\"")

	var speakerID string
	for _, view := range env.daemon.Devices() {
		if view.Name == "Speakers" {
			speakerID = view.StableID
		}
	}
	if speakerID == "" {
		t.Fatal("speaker device not found")
	}

	out, _, err = runCLI(t, []string{"set", speakerID, "30%"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	requireContains(t, out, "Ceiling for Speakers set to 30%")

	out, _, err = runCLI(t, []string{"set-global", "0.5"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("set-global: %v", err)
	}
	requireContains(t, out, "Global ceiling set to 50%")

	out, _, err = runCLI(t, []string{"global"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	requireContains(t, out, "Global ceiling: 50%")

	_, _, err = runCLI(t, []string{"set", "vc1-missing", "0.5"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown device")
	}
	requireContains(t, err.Error(), "not found")

	_, _, err = runCLI(t, []string{"set-global", "150%"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for out-of-range ceiling")
	}
}

func TestParseVolumeArg(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "0.65", want: 0.65},
		{in: "1", want: 1},
		{in: "65%", want: 0.65},
		{in: "65", want: 0.65},
		{in: "100", want: 1},
		{in: " 40% ", want: 0.4},
		{in: "loud", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseVolumeArg(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseVolumeArg(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseVolumeArg(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseVolumeArg(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
