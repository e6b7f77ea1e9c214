package jsonld

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Reserved JSON-LD keywords handled specially by the tree builder.
const (
	KeyID      = "@id"
	KeyType    = "@type"
	KeyContext = "@context"
	KeyGraph   = "@graph"
)

// Number is a JSON number kept in its literal textual form.
type Number = json.Number

// Value is a field value: string, Number, bool, *Record, []Value or nil.
type Value = any

// Record is one entity of the graph with its fields in document order.
type Record struct {
	keys   []string
	fields map[string]Value
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{fields: make(map[string]Value)}
}

// Ref creates a reference record carrying only an identifier.
func Ref(id string) *Record {
	return NewRecord().Set(KeyID, id)
}

// Set assigns a field. A new key is appended to the key order; an existing
// key keeps its position. Set returns the record for chaining.
func (r *Record) Set(key string, v Value) *Record {
	if _, ok := r.fields[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.fields[key] = v
	return r
}

// Get returns the value of a field and whether it is present.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.fields[key]
	return v, ok
}

// Keys returns the field names in document order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// ID returns the record's identifier if it has a string "@id".
func (r *Record) ID() (string, bool) {
	v, ok := r.Get(KeyID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// IsReference reports whether the record carries only an identifier.
func (r *Record) IsReference() bool {
	_, ok := r.ID()
	return ok && r.Len() == 1
}

// MarshalJSON encodes the record with its fields in document order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Stringify renders a scalar value as display text. Records and arrays are
// rendered as compact JSON; unexpected types fall back to fmt formatting.
func Stringify(v Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case *Record, []Value:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
