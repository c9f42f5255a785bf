package cell

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrEncode is returned when a record list cannot be rendered to JSON.
var ErrEncode = errors.New("ENCODE_ERROR")

// EmptyArray is the wire form of an empty acquisition result.
var EmptyArray = []byte("[]")

// MarshalJSON renders the record with keys in wire order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders records as a JSON array in insertion order. A nil or empty
// list encodes as "[]".
func Encode(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return append([]byte(nil), EmptyArray...), nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
