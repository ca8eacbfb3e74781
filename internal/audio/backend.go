package audio

import "context"

// Endpoint describes one output endpoint as reported by the sound server.
type Endpoint struct {
	// Key is the backend-native endpoint name. It is only valid for the
	// current sound-server session; stable identity is derived elsewhere.
	Key string
	// Name is the human-readable description shown to users.
	Name string
	// Volume is the current output volume as a fraction in [0, 1].
	Volume float64
	// Properties carries backend-reported device properties such as
	// device.serial and sysfs.path, used for stable identity resolution.
	Properties map[string]string
}

// EventKind classifies a backend notification.
type EventKind int

const (
	// EventSinkChanged reports a volume or state change on one endpoint.
	EventSinkChanged EventKind = iota
	// EventSinkAdded reports a new endpoint.
	EventSinkAdded
	// EventSinkRemoved reports a vanished endpoint.
	EventSinkRemoved
	// EventServerChanged reports a sound-server level change, such as the
	// default output switching. Not relevant for ceiling enforcement.
	EventServerChanged
)

func (k EventKind) String() string {
	switch k {
	case EventSinkChanged:
		return "sink-changed"
	case EventSinkAdded:
		return "sink-added"
	case EventSinkRemoved:
		return "sink-removed"
	case EventServerChanged:
		return "server-changed"
	default:
		return "unknown"
	}
}

// Event is a push notification from the sound server. Key may be empty when
// the backend could not resolve the affected endpoint; consumers should fall
// back to a full rescan in that case.
type Event struct {
	Kind EventKind
	Key  string
}

// Backend abstracts the sound server.
type Backend interface {
	// Endpoints enumerates the currently available output endpoints.
	Endpoints(ctx context.Context) ([]Endpoint, error)
	// Volume reads the current normalized volume of one endpoint.
	Volume(ctx context.Context, key string) (float64, error)
	// SetVolume writes the normalized volume of one endpoint.
	SetVolume(ctx context.Context, key string, volume float64) error
	// Subscribe delivers push notifications to events until ctx is done.
	// It blocks for the lifetime of the subscription and restarts the
	// underlying stream on transient failures.
	Subscribe(ctx context.Context, events chan<- Event) error
}
