package result

import (
	"time"

	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/query"
)

// Result is the outcome of one Fetch.
type Result struct {
	// RunID identifies the batch run in logs
	RunID string

	Kind dataset.Kind

	// Table holds the merged rows in enumeration order
	Table *Table

	// Rejected holds this run's empty combinations; never nil
	Rejected *Ledger

	// Instances is the number of requests issued
	Instances int

	// Pruned is the number of combinations dropped before any request
	Pruned int

	Combinatorial bool
	Duration      time.Duration
}

type slot struct {
	inst     query.Instance
	rows     []Row
	rejected bool
}

// Aggregator collects per-instance outcomes out of order and reassembles
// them in enumeration order. Each index must be written by at most one
// goroutine, and Table/Ledger must only be read after all writers are done.
type Aggregator struct {
	kind  dataset.Kind
	slots []slot
}

// NewAggregator prepares n slots for kind.
func NewAggregator(kind dataset.Kind, n int) *Aggregator {
	return &Aggregator{kind: kind, slots: make([]slot, n)}
}

// Accept stores the rows of instance i, stamped with its fields.
func (a *Aggregator) Accept(i int, inst query.Instance, payload []Row) {
	rows := make([]Row, len(payload))
	for j, p := range payload {
		rows[j] = Stamp(inst, p)
	}
	a.slots[i] = slot{inst: inst, rows: rows}
}

// Reject records instance i as empty.
func (a *Aggregator) Reject(i int, inst query.Instance) {
	a.slots[i] = slot{inst: inst, rejected: true}
}

// Table concatenates accepted rows in slot order.
func (a *Aggregator) Table() *Table {
	t := NewTable()
	for _, s := range a.slots {
		t.Append(s.rows...)
	}
	return t
}

// Ledger lists rejected instances in slot order.
func (a *Aggregator) Ledger() *Ledger {
	l := NewLedger()
	for _, s := range a.slots {
		if s.rejected {
			l.Add(a.kind, s.inst)
		}
	}
	return l
}
