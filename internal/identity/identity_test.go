package identity

import (
	"strings"
	"testing"

	"volcap/internal/audio"
)

func TestResolvePrefersSerial(t *testing.T) {
	endpoint := audio.Endpoint{
		Key:  "alsa_output.usb-1",
		Name: "USB DAC",
		Properties: map[string]string{
			"device.serial": "usb-FiiO-K5",
			"sysfs.path":    "/devices/pci0000:00/usb1",
		},
	}
	res := Resolve(endpoint)
	if !res.Durable {
		t.Fatal("serial-backed identity should be durable")
	}
	if !strings.HasPrefix(res.StableID, "vc1-") {
		t.Fatalf("missing scheme prefix: %q", res.StableID)
	}

	// Same serial, different session key and sysfs path: same identity.
	endpoint.Key = "alsa_output.usb-7"
	endpoint.Properties["sysfs.path"] = "/devices/pci0000:00/usb3"
	if again := Resolve(endpoint); again.StableID != res.StableID {
		t.Fatalf("identity changed across reconnect: %q vs %q", again.StableID, res.StableID)
	}
}

func TestResolveDistinguishesDevices(t *testing.T) {
	a := Resolve(audio.Endpoint{Properties: map[string]string{"device.serial": "one"}})
	b := Resolve(audio.Endpoint{Properties: map[string]string{"device.serial": "two"}})
	if a.StableID == b.StableID {
		t.Fatal("distinct serials must yield distinct ids")
	}
}

func TestResolveFallsBackToSysfsPath(t *testing.T) {
	res := Resolve(audio.Endpoint{
		Name:       "Onboard Audio",
		Properties: map[string]string{"sysfs.path": "/devices/pci0000:00/0000:0b:00.4/sound/card1"},
	})
	if !res.Durable {
		t.Fatal("sysfs-backed identity should be durable")
	}
}

func TestResolveFallbackIsNotDurable(t *testing.T) {
	res := Resolve(audio.Endpoint{Key: "null-sink", Name: "Null Output"})
	if res.Durable {
		t.Fatal("name-derived identity must be flagged non-durable")
	}
	if res.StableID == "" {
		t.Fatal("fallback must still produce an id")
	}
}

func TestResolveFallbackNormalizesName(t *testing.T) {
	// Fullwidth and compatibility forms of the same letters resolve alike.
	a := Resolve(audio.Endpoint{Name: "Ｍｏｎｉｔｏｒ"})
	b := Resolve(audio.Endpoint{Name: "monitor"})
	if a.StableID != b.StableID {
		t.Fatalf("NFKC fold failed: %q vs %q", a.StableID, b.StableID)
	}
}

func TestResolveFallbackSeparatesClasses(t *testing.T) {
	a := Resolve(audio.Endpoint{Name: "Loopback", Properties: map[string]string{"device.class": "abstract"}})
	b := Resolve(audio.Endpoint{Name: "Loopback", Properties: map[string]string{"device.class": "monitor"}})
	if a.StableID == b.StableID {
		t.Fatal("same name with different classes must differ")
	}
}
