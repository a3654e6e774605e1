package catalog

// Dimension names shared by master data, query templates and result rows.
const (
	Scenario   = "scenario"
	Region     = "region"
	Country    = "country"
	Zone       = "zone"
	Edition    = "edition"
	Group      = "group"
	Indicator  = "indicator"
	Unit       = "unit"
	Technology = "technology"
	Category   = "category"
)

// Names of the relations built from master data.
const (
	RelScenarios              = "scenarios"
	RelEditions               = "editions"
	RelCountriesZones         = "countries-zones"
	RelGroupsIndicators       = "groups-indicators"
	RelTechnologiesCategories = "technologies-categories"
	RelCountries              = "countries"
	RelZones                  = "zones"
)

// Relation is a flat table of legal dimension combinations. Each row is one
// tuple of (dimension, value) pairs, with dimensions given by Columns.
// A Relation is never modified after normalization.
type Relation struct {
	name    string
	columns []string
	rows    [][]string
	index   map[string]int
}

func newRelation(name string, columns []string) *Relation {
	r := &Relation{name: name, index: make(map[string]int, len(columns))}
	for _, c := range columns {
		r.addColumn(c)
	}
	return r
}

func (r *Relation) addColumn(c string) int {
	if i, ok := r.index[c]; ok {
		return i
	}
	r.index[c] = len(r.columns)
	r.columns = append(r.columns, c)
	for i := range r.rows {
		r.rows[i] = append(r.rows[i], "")
	}
	return len(r.columns) - 1
}

// add appends a row given as dimension -> value, growing columns as needed.
func (r *Relation) add(cols []string, vals []string) {
	for _, c := range cols {
		r.addColumn(c)
	}
	row := make([]string, len(r.columns))
	for i, c := range cols {
		row[r.index[c]] = vals[i]
	}
	r.rows = append(r.rows, row)
}

// Name returns the relation name, e.g. "countries-zones".
func (r *Relation) Name() string { return r.name }

// Columns returns the dimensions of the relation in order.
func (r *Relation) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Len returns the number of rows.
func (r *Relation) Len() int { return len(r.rows) }

// Row returns a copy of row i, aligned with Columns.
func (r *Relation) Row(i int) []string {
	return append([]string(nil), r.rows[i]...)
}

// Rows returns a copy of every row.
func (r *Relation) Rows() [][]string {
	out := make([][]string, len(r.rows))
	for i := range r.rows {
		out[i] = r.Row(i)
	}
	return out
}

// HasColumn reports whether dim is one of the relation's columns.
func (r *Relation) HasColumn(dim string) bool {
	_, ok := r.index[dim]
	return ok
}

// Distinct returns the distinct non-empty values of dim in first-appearance order.
func (r *Relation) Distinct(dim string) []string {
	i, ok := r.index[dim]
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range r.rows {
		v := row[i]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Contains reports whether some row agrees with every entry of match whose
// dimension is a column of the relation. Entries for other dimensions are
// ignored, and a match sharing no column with the relation is contained
// trivially: the relation cannot prove it invalid.
func (r *Relation) Contains(match map[string]string) bool {
	type cond struct {
		col int
		val string
	}
	var conds []cond
	for dim, val := range match {
		if i, ok := r.index[dim]; ok {
			conds = append(conds, cond{i, val})
		}
	}
	if len(conds) == 0 {
		return true
	}
	for _, row := range r.rows {
		ok := true
		for _, c := range conds {
			if row[c.col] != c.val {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}
