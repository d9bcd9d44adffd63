// Package extract turns one PDF page into flat records using a generative model.
package extract

import (
	"bytes"
	"encoding/json"
)

// Record maps every requested field name to a string value. Its key set is fixed at
// construction and always equals the requested fields, in request order.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns a record with every field set to "". Repeated field names keep their
// first position.
func NewRecord(fields []string) Record {
	r := Record{
		keys:   make([]string, 0, len(fields)),
		values: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if _, dup := r.values[f]; dup {
			continue
		}
		r.keys = append(r.keys, f)
		r.values[f] = ""
	}
	return r
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value of field, or "" when the record has no such field.
func (r Record) Get(field string) string {
	return r.values[field]
}

func (r Record) set(field, value string) {
	if _, ok := r.values[field]; ok {
		r.values[field] = value
	}
}

// Map returns a copy of the record as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the record as an object with keys in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
