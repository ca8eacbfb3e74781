package api_test

import (
	"testing"
	"time"

	"volcap/internal/api"
	"volcap/internal/engine"
)

func TestFromDeviceView(t *testing.T) {
	view := engine.DeviceView{
		StableID:     "vc1-0011223344556677",
		Name:         "Speakers",
		Volume:       0.42,
		MaxVolume:    0.8,
		EffectiveMax: 0.5,
		Connected:    true,
		Durable:      true,
	}
	dto := api.FromDeviceView(view)
	if dto.ID != view.StableID || dto.Name != "Speakers" {
		t.Fatalf("identity fields lost: %#v", dto)
	}
	if dto.Volume != 0.42 || dto.MaxVolume != 0.8 || dto.EffectiveMaxVolume != 0.5 {
		t.Fatalf("volume fields lost: %#v", dto)
	}
	if !dto.Connected || !dto.Durable {
		t.Fatalf("flags lost: %#v", dto)
	}
}

func TestFromEngineStatusFormatsStartTime(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	dto := api.FromEngineStatus(engine.Status{StartedAt: started, GlobalMaxVolume: 0.7})
	if dto.StartedAt != "2026-03-01T12:30:00.000Z" {
		t.Fatalf("unexpected timestamp %q", dto.StartedAt)
	}

	zero := api.FromEngineStatus(engine.Status{GlobalMaxVolume: 1})
	if zero.StartedAt != "" {
		t.Fatalf("zero time should be omitted, got %q", zero.StartedAt)
	}
}
