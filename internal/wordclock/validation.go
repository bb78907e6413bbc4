package wordclock

// Field ranges per the clock firmware's HTTP API. The device accepts a
// flat JSON object on /update; out-of-range values are rejected device-
// side with an opaque error, so the bridge filters them before sending.
//
// Unknown fields are accepted when the device reports them (the device
// is authoritative about its own schema) but rejected in mutations.

// Languages the clock face supports.
const (
	LanguageDialekt = "dialekt"
	LanguageDeutsch = "deutsch"
)

// intRange describes an inclusive integer field range.
type intRange struct {
	min, max int
}

var mutableIntFields = map[string]intRange{
	"brightness":      {0, 255},
	"red":             {0, 255},
	"green":           {0, 255},
	"blue":            {0, 255},
	"transition":      {0, 3},
	"prefixMode":      {0, 2},
	"transitionSpeed": {0, 4},
}

var mutableBoolFields = map[string]bool{
	"superBright": true,
	"enabled":     true,
}

// ValidateFields filters a mutation down to the fields the device will
// accept. Invalid or unknown fields are dropped individually; the
// returned snapshot contains only valid fields with integers normalized
// to int.
func ValidateFields(fields Snapshot) Snapshot {
	valid := make(Snapshot, len(fields))
	for name, value := range fields {
		if normalized, ok := validateField(name, value); ok {
			valid[name] = normalized
		}
	}
	return valid
}

// validateField checks one field and returns its normalized value.
func validateField(name string, value any) (any, bool) {
	if r, ok := mutableIntFields[name]; ok {
		n, ok := asInt(value)
		if !ok || n < r.min || n > r.max {
			return nil, false
		}
		return n, true
	}

	if mutableBoolFields[name] {
		b, ok := value.(bool)
		return b, ok
	}

	if name == "language" {
		s, ok := value.(string)
		if !ok || (s != LanguageDialekt && s != LanguageDeutsch) {
			return nil, false
		}
		return s, true
	}

	return nil, false
}

// asInt converts JSON numbers (float64) and native Go integers to int.
// Fractional floats are rejected.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		n := int(v)
		if float64(n) != v {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
