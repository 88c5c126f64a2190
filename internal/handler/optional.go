package handler

import "encoding/json"

// Optional is a three-state update value. It distinguishes a field that was
// not supplied at all (Present=false), one explicitly cleared with JSON null
// (Present=true, Valid=false), and one set to a value (Present=true,
// Valid=true).
type Optional[T any] struct {
	Present bool
	Valid   bool
	Value   T
}

// UnmarshalJSON is only invoked for fields that appear in the payload, so an
// absent field keeps the zero Optional.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	o.Valid = true
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON keeps Optional symmetric for response reuse in tests.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
