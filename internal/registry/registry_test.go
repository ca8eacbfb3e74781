package registry

import "testing"

func TestUpsertAndGetReturnSnapshots(t *testing.T) {
	r := New()
	r.Upsert(Device{StableID: "a", Name: "Speakers", LiveVolume: 0.4, Ceiling: 1.0})

	got, ok := r.Get("a")
	if !ok {
		t.Fatal("expected device")
	}
	got.LiveVolume = 0.9 // mutating the snapshot must not affect the registry

	again, _ := r.Get("a")
	if again.LiveVolume != 0.4 {
		t.Fatalf("snapshot leaked back into registry: %v", again.LiveVolume)
	}
}

func TestListOrdering(t *testing.T) {
	r := New()
	r.Upsert(Device{StableID: "z", Name: "Headphones"})
	r.Upsert(Device{StableID: "b", Name: "Speakers"})
	r.Upsert(Device{StableID: "a", Name: "Speakers"})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(list))
	}
	if list[0].Name != "Headphones" {
		t.Fatalf("expected Headphones first, got %q", list[0].Name)
	}
	if list[1].StableID != "a" || list[2].StableID != "b" {
		t.Fatalf("name ties must order by id: %q, %q", list[1].StableID, list[2].StableID)
	}
}

func TestSettersOnMissingDevice(t *testing.T) {
	r := New()
	if r.SetLiveVolume("nope", 0.5) {
		t.Fatal("SetLiveVolume should report missing device")
	}
	if r.SetCeiling("nope", 0.5) {
		t.Fatal("SetCeiling should report missing device")
	}
	if r.Remove("nope") {
		t.Fatal("Remove should report missing device")
	}
}

func TestRemove(t *testing.T) {
	r := New()
	r.Upsert(Device{StableID: "a", Name: "Speakers"})
	if !r.Remove("a") {
		t.Fatal("expected removal")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
	if _, ok := r.Get("a"); ok {
		t.Fatal("device should be gone")
	}
}

func TestSetters(t *testing.T) {
	r := New()
	r.Upsert(Device{StableID: "a", Name: "Speakers", Ceiling: 1.0})
	if !r.SetLiveVolume("a", 0.7) {
		t.Fatal("SetLiveVolume failed")
	}
	if !r.SetCeiling("a", 0.5) {
		t.Fatal("SetCeiling failed")
	}
	got, _ := r.Get("a")
	if got.LiveVolume != 0.7 || got.Ceiling != 0.5 {
		t.Fatalf("unexpected state %+v", got)
	}
}
