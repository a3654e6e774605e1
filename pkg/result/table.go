package result

// Table is an ordered sequence of rows. Columns are the union of row keys in
// first-appearance order.
type Table struct {
	columns []string
	known   map[string]bool
	rows    []Row
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{known: make(map[string]bool)}
}

// Append adds rows at the end.
func (t *Table) Append(rows ...Row) {
	for _, r := range rows {
		for _, k := range r.keys {
			if !t.known[k] {
				t.known[k] = true
				t.columns = append(t.columns, k)
			}
		}
		t.rows = append(t.rows, r)
	}
}

// Concat appends every row of other.
func (t *Table) Concat(other *Table) {
	if other == nil {
		return
	}
	t.Append(other.rows...)
}

// Columns returns the column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in order.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

// Records returns every row as values aligned with Columns. Missing cells
// are nil.
func (t *Table) Records() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		rec := make([]any, len(t.columns))
		for j, c := range t.columns {
			rec[j] = r.values[c]
		}
		out[i] = rec
	}
	return out
}
