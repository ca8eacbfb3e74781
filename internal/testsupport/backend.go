package testsupport

import (
	"context"
	"fmt"
	"sync"

	"volcap/internal/audio"
)

// SetVolumeCall records one volume write issued against the fake backend.
type SetVolumeCall struct {
	Key    string
	Volume float64
}

// FakeBackend is a scriptable audio.Backend for tests. Endpoints can be
// attached, detached, and nudged from the test body; every SetVolume issued
// by the code under test is recorded.
type FakeBackend struct {
	mu         sync.Mutex
	endpoints  map[string]audio.Endpoint
	order      []string
	setCalls   []SetVolumeCall
	scanErr    error
	volumeErrs map[string]error
	setErrs    map[string]error

	events chan audio.Event
}

// NewFakeBackend returns an empty fake backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		endpoints:  make(map[string]audio.Endpoint),
		volumeErrs: make(map[string]error),
		setErrs:    make(map[string]error),
		events:     make(chan audio.Event, 64),
	}
}

// AddEndpoint makes ep visible to the next enumeration.
func (b *FakeBackend) AddEndpoint(ep audio.Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.endpoints[ep.Key]; !ok {
		b.order = append(b.order, ep.Key)
	}
	b.endpoints[ep.Key] = ep
}

// RemoveEndpoint detaches the endpoint with the given key.
func (b *FakeBackend) RemoveEndpoint(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.endpoints, key)
	for i, existing := range b.order {
		if existing == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// SetEndpointVolume changes an endpoint's volume as if a user or another
// application moved the slider. No event is emitted; pair with Emit to
// simulate a notification.
func (b *FakeBackend) SetEndpointVolume(key string, volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ep, ok := b.endpoints[key]
	if !ok {
		return
	}
	ep.Volume = volume
	b.endpoints[key] = ep
}

// FailEnumeration makes Endpoints return err until cleared with nil.
func (b *FakeBackend) FailEnumeration(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scanErr = err
}

// FailSetVolume makes SetVolume for key return err until cleared with nil.
func (b *FakeBackend) FailSetVolume(key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.setErrs, key)
		return
	}
	b.setErrs[key] = err
}

// Emit injects a backend notification for any active subscription.
func (b *FakeBackend) Emit(event audio.Event) {
	b.events <- event
}

// SetVolumeCalls returns a copy of all recorded volume writes.
func (b *FakeBackend) SetVolumeCalls() []SetVolumeCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	calls := make([]SetVolumeCall, len(b.setCalls))
	copy(calls, b.setCalls)
	return calls
}

// Endpoints implements audio.Backend.
func (b *FakeBackend) Endpoints(ctx context.Context) ([]audio.Endpoint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scanErr != nil {
		return nil, b.scanErr
	}
	out := make([]audio.Endpoint, 0, len(b.order))
	for _, key := range b.order {
		if ep, ok := b.endpoints[key]; ok {
			out = append(out, ep)
		}
	}
	return out, nil
}

// Volume implements audio.Backend.
func (b *FakeBackend) Volume(ctx context.Context, key string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.volumeErrs[key]; err != nil {
		return 0, err
	}
	ep, ok := b.endpoints[key]
	if !ok {
		return 0, fmt.Errorf("no endpoint %q", key)
	}
	return ep.Volume, nil
}

// SetVolume implements audio.Backend. The write is recorded and applied to
// the endpoint so subsequent reads observe it, matching a real sound server.
func (b *FakeBackend) SetVolume(ctx context.Context, key string, volume float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.setErrs[key]; err != nil {
		return err
	}
	ep, ok := b.endpoints[key]
	if !ok {
		return fmt.Errorf("no endpoint %q", key)
	}
	b.setCalls = append(b.setCalls, SetVolumeCall{Key: key, Volume: volume})
	ep.Volume = volume
	b.endpoints[key] = ep
	return nil
}

// Subscribe implements audio.Backend, forwarding events injected with Emit
// until ctx is cancelled.
func (b *FakeBackend) Subscribe(ctx context.Context, events chan<- audio.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-b.events:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case events <- event:
			}
		}
	}
}
