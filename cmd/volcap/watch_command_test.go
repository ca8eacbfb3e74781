package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"volcap/internal/ipc"
)

func TestPrintDeviceList(t *testing.T) {
	devices := []ipc.Device{
		{ID: "vc1-a", Name: "Speakers", Volume: 0.4, MaxVolume: 0.5, EffectiveMaxVolume: 0.5, Connected: true},
		{ID: "vc1-b", Name: "Headphones", MaxVolume: 0.8, EffectiveMaxVolume: 0.8, Connected: false},
	}

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := printDeviceList(cmd, devices, true, false); err != nil {
		t.Fatalf("printDeviceList: %v", err)
	}
	requireContains(t, out.String(), "Speakers")
	requireContains(t, out.String(), "Headphones")
	requireContains(t, out.String(), "yes")
	requireContains(t, out.String(), "no")

	out.Reset()
	if err := printDeviceList(cmd, nil, false, false); err != nil {
		t.Fatalf("printDeviceList empty: %v", err)
	}
	requireContains(t, out.String(), "No devices found")

	out.Reset()
	if err := printDeviceList(cmd, devices, false, true); err != nil {
		t.Fatalf("printDeviceList json: %v", err)
	}
	requireContains(t, out.String(), "\"maxVolume\"")
}
