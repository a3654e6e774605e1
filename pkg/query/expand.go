package query

import (
	"errors"
	"strings"

	"github.com/Sternrassler/thema-client/pkg/catalog"
)

// ErrMissingFields is matched by every MissingFieldsError.
var ErrMissingFields = errors.New("missing required field")

// MissingFieldsError lists every required field that was not usable.
type MissingFieldsError struct {
	// Missing fields were not in the template at all
	Missing []string

	// Empty fields were present but blank, null or an empty set
	Empty []string
}

func (e *MissingFieldsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Empty) > 0 {
		parts = append(parts, "empty: "+strings.Join(e.Empty, ", "))
	}
	return "required fields not set (" + strings.Join(parts, "; ") + ")"
}

// Is allows errors.Is(err, ErrMissingFields).
func (e *MissingFieldsError) Is(target error) bool { return target == ErrMissingFields }

// Fields returns every offending field, missing ones first.
func (e *MissingFieldsError) Fields() []string {
	return append(append([]string(nil), e.Missing...), e.Empty...)
}

// Validate checks that every required field has a usable value. It reports
// all offending fields at once.
func Validate(t Template, required []string) error {
	var missing, empty []string
	for _, name := range required {
		v, ok := t[name]
		switch {
		case !ok || v.IsAbsent():
			missing = append(missing, name)
		case v.IsEmpty():
			empty = append(empty, name)
		}
	}
	if len(missing) == 0 && len(empty) == 0 {
		return nil
	}
	return &MissingFieldsError{Missing: missing, Empty: empty}
}

// EditionRule keeps only editions the catalog lists for the instance's
// region. It applies when an absent edition expands to every edition.
var EditionRule = Rule{
	Name:       "edition",
	Relation:   catalog.RelEditions,
	Dimensions: []string{catalog.Region, catalog.Edition},
}

// Plan describes how one dataset family expands templates.
type Plan struct {
	// Fields in request order; absent ones are filled from the catalog
	Fields []string

	// Required fields must be supplied by the caller
	Required []string

	// Rules prune invalid combinations
	Rules []Rule

	// AllEditions expands an absent edition to every listed edition instead
	// of the newest one
	AllEditions bool
}

// Expansion is the outcome of expanding one template.
type Expansion struct {
	// Instances in enumeration order, already pruned
	Instances []Instance

	// Combinatorial is set when at least one field was a candidate set
	Combinatorial bool

	// Unpruned is the size of the Cartesian product
	Unpruned int

	// Pruned counts instances dropped by the rules
	Pruned int
}

// Expand turns a template into validated query instances.
//
// Absent fields of the plan expand to their full catalog domain, except the
// edition, which defaults to the newest edition of the requested region.
// An omitted dimension therefore multiplies the number of instances by the
// size of its domain.
func Expand(t Template, plan Plan, cat *catalog.Catalog) (*Expansion, error) {
	if err := Validate(t, plan.Required); err != nil {
		return nil, err
	}

	order := fieldOrder(plan.Fields, t)
	resolved, prune, err := resolve(t, plan, order, cat)
	if err != nil {
		return nil, err
	}

	var dims []string
	var cands [][]string
	combinatorial := false
	for _, d := range order {
		v, ok := resolved[d]
		if !ok || v.IsEmpty() {
			continue
		}
		if v.IsMultiple() {
			combinatorial = true
		}
		dims = append(dims, d)
		cands = append(cands, v.values)
	}

	if !combinatorial {
		fields := make([]Field, len(dims))
		for j, d := range dims {
			fields[j] = Field{Name: d, Value: cands[j][0]}
		}
		return &Expansion{
			Instances: []Instance{NewInstance(fields...)},
			Unpruned:  1,
		}, nil
	}

	keep := func(inst Instance) bool {
		if cat == nil {
			return true
		}
		for _, r := range prune.rules {
			if !r.Allow(cat, inst) {
				return false
			}
		}
		if prune.newest != nil {
			region, _ := inst.Get(catalog.Region)
			edition, _ := inst.Get(catalog.Edition)
			if prune.newest[region] != edition {
				return false
			}
		}
		return true
	}

	exp := &Expansion{Combinatorial: true, Unpruned: 1}
	for _, c := range cands {
		exp.Unpruned *= len(c)
	}

	idx := make([]int, len(dims))
	for {
		fields := make([]Field, len(dims))
		for j := range dims {
			fields[j] = Field{Name: dims[j], Value: cands[j][idx[j]]}
		}
		if inst := (Instance{fields: fields}); keep(inst) {
			exp.Instances = append(exp.Instances, inst)
		}

		// the last field varies fastest
		j := len(dims) - 1
		for ; j >= 0; j-- {
			idx[j]++
			if idx[j] < len(cands[j]) {
				break
			}
			idx[j] = 0
		}
		if j < 0 {
			break
		}
	}
	exp.Pruned = exp.Unpruned - len(exp.Instances)
	return exp, nil
}

// fieldOrder returns the plan's fields followed by any other template
// fields in sorted order.
func fieldOrder(fields []string, t Template) []string {
	order := append([]string(nil), fields...)
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f] = true
	}
	for _, k := range t.Keys() {
		if !known[k] {
			order = append(order, k)
		}
	}
	return order
}

type pruning struct {
	rules []Rule

	// newest maps each candidate region to the edition it defaulted to
	newest map[string]string
}

func resolve(t Template, plan Plan, order []string, cat *catalog.Catalog) (map[string]Value, pruning, error) {
	p := pruning{rules: append([]Rule(nil), plan.Rules...)}
	inPlan := make(map[string]bool, len(plan.Fields))
	for _, f := range plan.Fields {
		inPlan[f] = true
	}

	resolved := make(map[string]Value, len(order))
	editionAbsent := false
	for _, d := range order {
		v := t[d]
		if !v.IsEmpty() {
			resolved[d] = v
			continue
		}
		if !inPlan[d] || cat == nil {
			continue
		}
		if d == catalog.Edition {
			editionAbsent = true
			continue
		}
		if domain := cat.Domain(d); len(domain) > 0 {
			resolved[d] = Set(domain...)
		}
	}

	if !editionAbsent {
		return resolved, p, nil
	}

	if plan.AllEditions {
		if domain := cat.Domain(catalog.Edition); len(domain) > 0 {
			resolved[catalog.Edition] = Set(domain...)
			p.rules = append(p.rules, EditionRule)
		}
		return resolved, p, nil
	}

	ed, newest, err := newestEdition(cat, resolved[catalog.Region])
	if errors.Is(err, catalog.ErrNoEditions) {
		return resolved, p, nil
	}
	if err != nil {
		return nil, p, err
	}
	resolved[catalog.Edition] = ed
	p.newest = newest
	return resolved, p, nil
}

// newestEdition picks the default edition for region. A set of regions
// yields the set of their newest editions plus the region -> edition
// pairing used to prune mismatched combinations.
func newestEdition(cat *catalog.Catalog, region Value) (Value, map[string]string, error) {
	switch {
	case region.IsEmpty():
		ed, err := cat.NewestEdition("")
		if err != nil {
			return Value{}, nil, err
		}
		return Scalar(ed), nil, nil
	case !region.IsMultiple():
		ed, err := cat.NewestEdition(region.values[0])
		if err != nil {
			return Value{}, nil, err
		}
		return Scalar(ed), nil, nil
	}

	newest := make(map[string]string, region.Len())
	eds := make([]string, 0, region.Len())
	for _, r := range region.values {
		ed, err := cat.NewestEdition(r)
		if err != nil {
			return Value{}, nil, err
		}
		newest[r] = ed
		eds = append(eds, ed)
	}
	return Set(eds...), newest, nil
}
