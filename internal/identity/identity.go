package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"

	"volcap/internal/audio"
)

// idPrefix versions the identifier scheme so a future derivation change can
// coexist with persisted ceilings keyed by the old one.
const idPrefix = "vc1-"

// hardwareProperties lists endpoint properties that survive reboots and
// reconnects, in preference order.
var hardwareProperties = []string{
	"device.serial",
	"sysfs.path",
	"device.bus_path",
}

// Resolution is the result of resolving an endpoint's stable identity.
type Resolution struct {
	// StableID is durable across reboots and reconnects for the same
	// physical device when Durable is true.
	StableID string
	// Durable is false when no hardware identity was available and the id
	// falls back to the endpoint's name and class. Such ids survive
	// reconnects but not a driver rename.
	Durable bool
}

// Resolve derives a stable identifier from an endpoint's hardware
// properties. Virtual and degenerate endpoints that expose no hardware
// identity get a best-effort id from their normalized name.
func Resolve(endpoint audio.Endpoint) Resolution {
	for _, prop := range hardwareProperties {
		value := strings.TrimSpace(endpoint.Properties[prop])
		if value == "" {
			continue
		}
		return Resolution{
			StableID: hashIdentity(prop, value),
			Durable:  true,
		}
	}

	// Fallback: normalized display name plus device class. NFKC folds
	// cosmetic re-encodings of the same name onto one identity.
	name := strings.ToLower(strings.TrimSpace(endpoint.Name))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(endpoint.Key))
	}
	name = norm.NFKC.String(name)
	class := strings.TrimSpace(endpoint.Properties["device.class"])
	if class == "" {
		class = strings.TrimSpace(endpoint.Properties["device.form_factor"])
	}
	return Resolution{
		StableID: hashIdentity("name", name+"\x00"+class),
		Durable:  false,
	}
}

func hashIdentity(kind, value string) string {
	sum := sha256.Sum256([]byte(kind + ":" + value))
	return idPrefix + hex.EncodeToString(sum[:8])
}
