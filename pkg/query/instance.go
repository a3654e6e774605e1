package query

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Field is one dimension of a Query Instance.
type Field struct {
	Name  string
	Value string
}

// Instance is a fully scalar request payload. Instances are immutable; every
// accessor returns copies.
type Instance struct {
	fields []Field
}

// NewInstance builds an instance from fields in request order. Fields with
// empty values are dropped.
func NewInstance(fields ...Field) Instance {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		out = append(out, f)
	}
	return Instance{fields: out}
}

// Get returns the value of dim.
func (i Instance) Get(dim string) (string, bool) {
	for _, f := range i.fields {
		if f.Name == dim {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns the fields in request order.
func (i Instance) Fields() []Field {
	return append([]Field(nil), i.fields...)
}

// Names returns the field names in request order.
func (i Instance) Names() []string {
	names := make([]string, len(i.fields))
	for j, f := range i.fields {
		names[j] = f.Name
	}
	return names
}

// Len returns the number of fields.
func (i Instance) Len() int { return len(i.fields) }

// Map returns the fields as a map.
func (i Instance) Map() map[string]string {
	m := make(map[string]string, len(i.fields))
	for _, f := range i.fields {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON writes the instance as a JSON object with keys in request order.
func (i Instance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for j, f := range i.fields {
		if j > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (i Instance) String() string {
	parts := make([]string, len(i.fields))
	for j, f := range i.fields {
		parts[j] = f.Name + "=" + f.Value
	}
	return strings.Join(parts, " ")
}
