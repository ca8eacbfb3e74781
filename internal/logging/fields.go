package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType tags the machine-readable kind of an event.
	FieldEventType = "event_type"
	// FieldErrorHint carries a suggested next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDeviceID is the stable device identifier.
	FieldDeviceID = "device_id"
	// FieldDeviceName is the human-readable device label.
	FieldDeviceName = "device_name"
	// FieldVolume is a normalized volume fraction.
	FieldVolume = "volume"
	// FieldCeiling is a configured or effective ceiling fraction.
	FieldCeiling = "ceiling"
	// FieldCorrelationID is the standardized key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)
