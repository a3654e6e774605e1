// Package result holds the merged output of a batch run: the result table,
// whose rows carry the query fields that produced them, and the ledger of
// combinations the service answered with no data.
package result

import "github.com/Sternrassler/thema-client/pkg/query"

// Row is one record with ordered columns.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow returns an empty row.
func NewRow() Row {
	return Row{values: make(map[string]any)}
}

// Set stores v under key. A new key is appended to the column order.
func (r *Row) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value under key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the columns in order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.keys) }

// Map returns the row as a map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// Stamp returns payload prefixed with every field of inst. Instance fields
// come first and take precedence over payload columns of the same name.
func Stamp(inst query.Instance, payload Row) Row {
	out := Row{
		keys:   make([]string, 0, inst.Len()+payload.Len()),
		values: make(map[string]any, inst.Len()+payload.Len()),
	}
	for _, f := range inst.Fields() {
		out.Set(f.Name, f.Value)
	}
	for _, k := range payload.keys {
		if _, ok := out.values[k]; ok {
			continue
		}
		out.Set(k, payload.values[k])
	}
	return out
}
