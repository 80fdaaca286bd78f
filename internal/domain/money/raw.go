package money

import (
	"bytes"
	"encoding/json"
)

// RawAmount is an amount exactly as the user typed it. It decodes from a
// JSON string, a JSON number or null; any other JSON value is kept as its
// literal text so that Normalize can flag it.
type RawAmount string

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawAmount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*r = RawAmount(n.String())
			return nil
		}
		*r = RawAmount(data)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r RawAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}
