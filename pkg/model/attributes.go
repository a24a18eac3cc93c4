package model

import "encoding/json"

// Attributes is a free-form structured value attached to nodes and
// edges. It is stored verbatim and must round-trip through
// serialize/deserialize without loss (P8), so it is kept as a generic
// JSON-shaped tree rather than flattened into typed fields, per
// spec.md's design notes on dynamic attributes.
type Attributes map[string]any

// Clone returns a deep copy of a, sufficient for round-trip fidelity.
// Values are copied via a JSON round-trip rather than a hand-rolled deep
// walk: Attributes is defined to hold only JSON-shaped values (maps,
// slices, strings, numbers, bools, nil), so this is exact and avoids a
// bespoke recursive copier for an open-ended value type.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		// Attributes are documented to be JSON-shaped; a marshal failure
		// here means a caller stored a non-JSON-shaped value. Fall back
		// to a shallow copy rather than losing the attributes entirely.
		out := make(Attributes, len(a))
		for k, v := range a {
			out[k] = v
		}
		return out
	}
	var out Attributes
	if err := json.Unmarshal(data, &out); err != nil {
		return a
	}
	return out
}
