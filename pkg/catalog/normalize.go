package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// singular maps the plural keys used in master data to dimension names.
var singular = map[string]string{
	"scenarios":    Scenario,
	"regions":      Region,
	"countries":    Country,
	"zones":        Zone,
	"editions":     Edition,
	"groups":       Group,
	"indicators":   Indicator,
	"units":        Unit,
	"technologies": Technology,
	"categories":   Category,
}

// childDimension names the dependent dimension of a keyed map such as
// {"Wind Onshore": ["Low", "High"]}.
var childDimension = map[string]string{
	Technology: Category,
	Group:      Indicator,
	Country:    Zone,
	Region:     Country,
}

func dimensionFor(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if d, ok := singular[k]; ok {
		return d
	}
	return k
}

// relationName picks the relation a top-level master data key is stored in.
func relationName(key string, columns []string) string {
	has := func(dim string) bool {
		for _, c := range columns {
			if c == dim {
				return true
			}
		}
		return false
	}
	switch dimensionFor(key) {
	case Scenario:
		return RelScenarios
	case Edition:
		return RelEditions
	case Group:
		return RelGroupsIndicators
	case Technology:
		return RelTechnologiesCategories
	case Country:
		if has(Zone) {
			return RelCountriesZones
		}
		return RelCountries
	case Zone:
		return RelZones
	case Indicator:
		return "indicators"
	case Category:
		return "categories"
	default:
		return strings.ToLower(key)
	}
}

type builder struct {
	names     []string
	relations map[string]*Relation
}

func (b *builder) relation(name string) *Relation {
	if r, ok := b.relations[name]; ok {
		return r
	}
	r := newRelation(name, nil)
	b.relations[name] = r
	b.names = append(b.names, name)
	return r
}

func (b *builder) addRows(name string, cols []string, rows [][]string) {
	if len(cols) == 0 || len(rows) == 0 {
		return
	}
	r := b.relation(name)
	for _, row := range rows {
		r.add(cols, row)
	}
}

// Normalize builds a Catalog from a raw master data response body.
func Normalize(source string, body []byte) (*Catalog, error) {
	return NormalizeAt(source, body, time.Now())
}

// NormalizeAt is Normalize with an explicit fetch time, used when the body
// comes from a cached snapshot.
func NormalizeAt(source string, body []byte, fetchedAt time.Time) (*Catalog, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode master data: invalid JSON")
	}
	top := gjson.ParseBytes(body)
	if !top.IsObject() {
		return nil, fmt.Errorf("decode master data: expected JSON object, got %s", top.Type)
	}

	b := &builder{relations: make(map[string]*Relation)}
	top.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if dimensionFor(key) == Region && v.IsArray() {
			b.regions(v.Array())
			return true
		}
		b.generic(key, v)
		return true
	})

	return &Catalog{
		source:    source,
		fetchedAt: fetchedAt,
		names:     b.names,
		relations: b.relations,
	}, nil
}

// scalar renders a JSON scalar as text. Objects, arrays and null yield "".
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw
	default:
		return ""
	}
}

// regions unpacks the nested market outlook shape: each region carries its
// own edition list and a country -> zone tree. Editions and zones are kept in
// separate relations since they do not depend on each other.
func (b *builder) regions(list []gjson.Result) {
	for _, item := range list {
		if !item.IsObject() {
			if name := scalar(item); name != "" {
				b.addRows(RelCountriesZones, []string{Region}, [][]string{{name}})
			}
			continue
		}
		region := scalar(item.Get(Region))

		item.ForEach(func(k, v gjson.Result) bool {
			dim := dimensionFor(k.String())
			if dim == Region {
				return true
			}
			cols, rows := flattenValue(dim, v)
			if len(rows) == 0 {
				return true
			}
			name := "region-" + dim
			switch dim {
			case Edition:
				name = RelEditions
			case Country, Zone:
				name = RelCountriesZones
			}
			b.addRows(name, append([]string{Region}, cols...), prefixRows(region, rows))
			return true
		})
	}
}

// generic stores any other top-level key. Lists become one relation; keyed
// maps become (key, child) pairs.
func (b *builder) generic(key string, value gjson.Result) {
	dim := dimensionFor(key)
	switch {
	case value.IsArray():
		cols, rows := flattenList(dim, value.Array())
		b.addRows(relationName(key, cols), cols, rows)
	case value.IsObject():
		child, ok := childDimension[dim]
		if !ok {
			child = "value"
		}
		value.ForEach(func(k, v gjson.Result) bool {
			cols, rows := flattenValue(child, v)
			if len(rows) == 0 {
				cols, rows = nil, [][]string{{}}
			}
			all := append([]string{dim}, cols...)
			b.addRows(relationName(key, all), all, prefixRows(k.String(), rows))
			return true
		})
	}
}

func prefixRows(prefix string, rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string{prefix}, row...)
	}
	return out
}

// flattenValue flattens a value found under dimension dim.
func flattenValue(dim string, value gjson.Result) ([]string, [][]string) {
	switch {
	case value.IsObject():
		return flattenObject(value)
	case value.IsArray():
		return flattenList(dim, value.Array())
	default:
		s := scalar(value)
		if s == "" {
			return nil, nil
		}
		return []string{dim}, [][]string{{s}}
	}
}

// flattenObject turns one object into rows: scalars are columns, lists
// multiply the rows, nested objects contribute their own columns.
func flattenObject(obj gjson.Result) ([]string, [][]string) {
	var cols []string
	rows := [][]string{{}}
	obj.ForEach(func(k, v gjson.Result) bool {
		dim := dimensionFor(k.String())
		if v.IsObject() || v.IsArray() {
			sc, sr := flattenValue(dim, v)
			if len(sr) > 0 {
				cols, rows = cross(cols, rows, sc, sr)
			}
			return true
		}
		s := scalar(v)
		cols = append(cols, dim)
		for i := range rows {
			rows[i] = append(rows[i], s)
		}
		return true
	})
	if len(cols) == 0 {
		return nil, nil
	}
	return cols, rows
}

// flattenList unions the rows of every element, aligning columns by name.
func flattenList(dim string, list []gjson.Result) ([]string, [][]string) {
	var cols []string
	index := make(map[string]int)
	var rows [][]string

	for _, item := range list {
		ic, ir := flattenValue(dim, item)
		for _, c := range ic {
			if _, ok := index[c]; !ok {
				index[c] = len(cols)
				cols = append(cols, c)
			}
		}
		for _, r := range ir {
			row := make([]string, len(cols))
			for j, c := range ic {
				row[index[c]] = r[j]
			}
			rows = append(rows, row)
		}
	}
	for i := range rows {
		for len(rows[i]) < len(cols) {
			rows[i] = append(rows[i], "")
		}
	}
	return cols, rows
}

func cross(aCols []string, aRows [][]string, bCols []string, bRows [][]string) ([]string, [][]string) {
	cols := append(append([]string(nil), aCols...), bCols...)
	rows := make([][]string, 0, len(aRows)*len(bRows))
	for _, a := range aRows {
		for _, b := range bRows {
			row := make([]string, 0, len(cols))
			row = append(row, a...)
			row = append(row, b...)
			rows = append(rows, row)
		}
	}
	return cols, rows
}
