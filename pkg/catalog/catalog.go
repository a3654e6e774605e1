// Package catalog holds the Reference Catalog: a normalized, read-only
// snapshot of the master data the service reports for one dataset family.
//
// Master data arrives in two shapes. The market outlook endpoint nests
// countries and zones under regions, while the technology and hydrogen
// endpoints report flat keyed lists. Normalize flattens either into named
// relations of (dimension, value) tuples, so the query expander can look up
// dimension domains and test cross-field dependencies without knowing which
// endpoint the catalog came from.
package catalog

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownRegion is returned when a region filter names a region the
	// catalog does not list.
	ErrUnknownRegion = errors.New("unknown region")

	// ErrNoEditions is returned by NewestEdition when the catalog has no
	// edition relation.
	ErrNoEditions = errors.New("catalog has no editions")

	// ErrNotLoaded is returned when master data is read before it was loaded.
	ErrNotLoaded = errors.New("master data not loaded")
)

// UnknownRegionError names the region that was not found.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("region %q is not in the master data region overview", e.Region)
}

// Unwrap allows errors.Is(err, ErrUnknownRegion).
func (e *UnknownRegionError) Unwrap() error { return ErrUnknownRegion }

// Catalog is an immutable set of relations built from one master data fetch.
// Refreshing master data produces a new Catalog; an existing one never changes.
type Catalog struct {
	source    string
	fetchedAt time.Time
	names     []string
	relations map[string]*Relation
}

// Source returns the master data path the catalog was built from.
func (c *Catalog) Source() string { return c.source }

// FetchedAt returns when the underlying master data was fetched.
func (c *Catalog) FetchedAt() time.Time { return c.fetchedAt }

// Names returns the relation names in the order the service reported them.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Relation returns the named relation.
func (c *Catalog) Relation(name string) (*Relation, bool) {
	r, ok := c.relations[name]
	return r, ok
}

// Domain returns every known value of dim across all relations, in
// first-appearance order. It is the set an absent template field expands to.
func (c *Catalog) Domain(dim string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range c.names {
		for _, v := range c.relations[name].Distinct(dim) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// HasDimension reports whether any relation carries dim.
func (c *Catalog) HasDimension(dim string) bool {
	for _, r := range c.relations {
		if r.HasColumn(dim) {
			return true
		}
	}
	return false
}
