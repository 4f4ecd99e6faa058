package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"contentsbuilder/internal/tabular"
)

// Record is an ordered mapping from column name to value. The zero value is
// an empty record ready for Set.
type Record struct {
	keys   []string
	values map[string]any
}

// Of builds a record from alternating key/value arguments. It panics when
// given an odd number of arguments or a non-string key, which is always a
// programming error at the call site.
func Of(pairs ...any) Record {
	if len(pairs)%2 != 0 {
		panic("records.Of: odd number of arguments")
	}
	var rec Record
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("records.Of: key at position %d is %T, not string", i, pairs[i]))
		}
		rec.Set(key, pairs[i+1])
	}
	return rec
}

// Set assigns value to key, keeping the original position when key exists.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns field names in declaration order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.keys)
}

// String returns the display form of key's value, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return tabular.CellString(v)
}

// Int returns key's value as an int. Numeric strings are accepted because
// a hand-edited cell often stores "4" rather than 4.
func (r Record) Int(key string) (int, error) {
	v, ok := r.values[key]
	if !ok || tabular.IsEmpty(v) {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, n)
		}
		return int(n), nil
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return int(parsed), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("%s: unexpected %T", key, v)
	}
}

// Bool returns key's value as a bool, accepting "true"/"false" text.
func (r Record) Bool(key string) (bool, error) {
	v, ok := r.values[key]
	if !ok || tabular.IsEmpty(v) {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("%s: unexpected %T", key, v)
	}
}

// Strings returns key's value as a string slice. Values decoded from a
// JSON column of a generic kind ([]any) are accepted as long as every
// element is a string.
func (r Record) Strings(key string) ([]string, error) {
	v, ok := r.values[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, elem := range list {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: unexpected %T", key, i, elem)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		if list == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: undecoded text %q", key, list)
	default:
		return nil, fmt.Errorf("%s: unexpected %T", key, v)
	}
}

// Clone returns a copy that does not share storage with r. Values themselves
// are copied shallowly.
func (r Record) Clone() Record {
	out := Record{keys: r.Keys(), values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Merge returns r with every field of partial written over it. Fields only
// present in partial are appended in partial's order.
func (r Record) Merge(partial Record) Record {
	out := r.Clone()
	for _, key := range partial.keys {
		out.Set(key, partial.values[key])
	}
	return out
}

// MarshalJSON encodes r as an object with keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
