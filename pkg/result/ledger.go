package result

import (
	"sync"

	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/query"
)

// Ledger records combinations the service answered with no data, per
// dataset family, in the order they were enumerated. It is safe for
// concurrent use.
type Ledger struct {
	mu      sync.Mutex
	kinds   []dataset.Kind
	entries map[dataset.Kind][]query.Instance
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[dataset.Kind][]query.Instance)}
}

// Add records a rejected instance.
func (l *Ledger) Add(kind dataset.Kind, inst query.Instance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[kind]; !ok {
		l.kinds = append(l.kinds, kind)
	}
	l.entries[kind] = append(l.entries[kind], inst)
}

// Entries returns the rejected instances of kind. The result is never nil.
func (l *Ledger) Entries(kind dataset.Kind) []query.Instance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]query.Instance{}, l.entries[kind]...)
}

// Kinds returns the families with entries, in first-rejection order.
func (l *Ledger) Kinds() []dataset.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]dataset.Kind{}, l.kinds...)
}

// Len returns the number of entries across all families.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		n += len(e)
	}
	return n
}

// IsEmpty reports whether nothing was rejected.
func (l *Ledger) IsEmpty() bool { return l.Len() == 0 }

// Merge appends every entry of other.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil || other == l {
		return
	}
	for _, kind := range other.Kinds() {
		for _, inst := range other.Entries(kind) {
			l.Add(kind, inst)
		}
	}
}

// Copy returns an independent ledger with the same entries.
func (l *Ledger) Copy() *Ledger {
	out := NewLedger()
	out.Merge(l)
	return out
}

// Table renders the ledger with a kind column followed by the instance
// fields.
func (l *Ledger) Table() *Table {
	t := NewTable()
	for _, kind := range l.Kinds() {
		for _, inst := range l.Entries(kind) {
			row := NewRow()
			row.Set("kind", string(kind))
			for _, f := range inst.Fields() {
				row.Set(f.Name, f.Value)
			}
			t.Append(row)
		}
	}
	return t
}
