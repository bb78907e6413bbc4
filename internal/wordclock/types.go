package wordclock

// Snapshot is the clock's state as a flat JSON object: field name to
// primitive value (bool, string, or number). The device defines the field
// set; the bridge mirrors whatever it sends.
type Snapshot map[string]any

// Clone returns a shallow copy of the snapshot.
// Values are primitives, so a shallow copy is a full copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Event is one decoded frame from the device's event stream.
type Event struct {
	// Type is the SSE event type, empty when the frame carried none.
	Type string

	// Fields is the decoded JSON payload, typically a partial snapshot.
	Fields Snapshot
}

// isPrimitive reports whether a value is storable in a snapshot.
// JSON decoding produces bool, string, and float64; optimistic updates
// from Go callers may also carry native integer types.
func isPrimitive(v any) bool {
	switch v.(type) {
	case bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
