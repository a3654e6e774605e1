package query

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells how a template field was specified.
type Kind int

const (
	// KindAbsent means the caller left the field unspecified.
	KindAbsent Kind = iota

	// KindScalar is a single value.
	KindScalar

	// KindSet is a set of candidate values, expanded combinatorially.
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSet:
		return "set"
	default:
		return "absent"
	}
}

// Value is the domain value of one template field. The zero Value is absent.
type Value struct {
	kind   Kind
	values []string
}

// Absent returns an unspecified value.
func Absent() Value { return Value{} }

// Scalar returns a single value.
func Scalar(v string) Value {
	return Value{kind: KindScalar, values: []string{v}}
}

// Set returns a candidate set. Duplicates and empty strings are dropped and
// the first-seen order is kept.
func Set(vs ...string) Value {
	seen := make(map[string]bool, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return Value{kind: KindSet, values: out}
}

// Kind returns how the value was specified.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the field was left unspecified.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsSet reports whether the value is a candidate set, even a one-element one.
func (v Value) IsSet() bool { return v.kind == KindSet }

// IsMultiple reports whether the value offers more than one candidate.
func (v Value) IsMultiple() bool { return v.kind == KindSet && len(v.values) > 1 }

// IsEmpty reports whether the value carries nothing usable: absent, a blank
// scalar, or a set without members.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindScalar:
		return strings.TrimSpace(v.values[0]) == ""
	case KindSet:
		return len(v.values) == 0
	default:
		return true
	}
}

// Values returns the candidates; a scalar yields one element.
func (v Value) Values() []string {
	return append([]string(nil), v.values...)
}

// Len returns the number of candidates.
func (v Value) Len() int { return len(v.values) }

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.values[0]
	case KindSet:
		return "{" + strings.Join(v.values, ", ") + "}"
	default:
		return "<absent>"
	}
}

// UnmarshalYAML reads a scalar as one value and a sequence as a set.
// A null is absent.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			*v = Absent()
			return nil
		}
		*v = Scalar(node.Value)
		return nil
	case yaml.SequenceNode:
		vs := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: set members must be scalars", item.Line)
			}
			if item.ShortTag() == "!!null" {
				continue
			}
			vs = append(vs, item.Value)
		}
		*v = Set(vs...)
		return nil
	default:
		return fmt.Errorf("line %d: expected a scalar or a sequence", node.Line)
	}
}

// MarshalYAML writes the value back in the same shape.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindScalar:
		return v.values[0], nil
	case KindSet:
		return v.Values(), nil
	default:
		return nil, nil
	}
}

// Template maps dimension names to domain values.
type Template map[string]Value

// Get returns the value for dim, absent if unset.
func (t Template) Get(dim string) Value { return t[dim] }

// Clone returns a shallow copy; Values are immutable so nothing is shared
// mutably.
func (t Template) Clone() Template {
	out := make(Template, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order.
func (t Template) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseTemplate reads a YAML mapping of dimension to value.
func ParseTemplate(data []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse query template: %w", err)
	}
	if t == nil {
		t = Template{}
	}
	return t, nil
}
