package query

import "github.com/Sternrassler/thema-client/pkg/catalog"

// Rule is a cross-field dependency checked against one catalog relation.
// An instance passes when its values for Dimensions, projected onto the
// relation's columns, appear together in some row.
type Rule struct {
	Name       string
	Relation   string
	Dimensions []string
}

// Predefined pruning rules.
var (
	// ZoneRule keeps only (region, country, zone) triples the catalog lists.
	ZoneRule = Rule{
		Name:       "zone",
		Relation:   catalog.RelCountriesZones,
		Dimensions: []string{catalog.Region, catalog.Country, catalog.Zone},
	}

	// GroupIndicatorRule keeps only listed (group, indicator) pairs.
	GroupIndicatorRule = Rule{
		Name:       "group-indicator",
		Relation:   catalog.RelGroupsIndicators,
		Dimensions: []string{catalog.Group, catalog.Indicator},
	}

	// TechnologyCategoryRule keeps only listed (technology, category) pairs.
	TechnologyCategoryRule = Rule{
		Name:       "technology-category",
		Relation:   catalog.RelTechnologiesCategories,
		Dimensions: []string{catalog.Technology, catalog.Category},
	}
)

// Allow reports whether inst satisfies the rule. A catalog without the
// rule's relation cannot rule anything out.
func (r Rule) Allow(cat *catalog.Catalog, inst Instance) bool {
	rel, ok := cat.Relation(r.Relation)
	if !ok {
		return true
	}
	match := make(map[string]string, len(r.Dimensions))
	for _, dim := range r.Dimensions {
		if v, ok := inst.Get(dim); ok {
			match[dim] = v
		}
	}
	return rel.Contains(match)
}
