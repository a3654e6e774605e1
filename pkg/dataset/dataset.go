// Package dataset describes the dataset families the service exposes. A
// Family is configuration, not behaviour: it names the endpoints, the fields
// a caller must supply, the request field order and the pruning rules the
// expander applies.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/thema-client/pkg/catalog"
	"github.com/Sternrassler/thema-client/pkg/query"
)

// Kind identifies a dataset family.
type Kind string

// Dataset families.
const (
	Hourly     Kind = "Hourly"
	Monthly    Kind = "Monthly"
	Annual     Kind = "Annual"
	GO         Kind = "GO"
	PPA        Kind = "PPA"
	Technology Kind = "Technology"
)

// DataKey is the response key that holds data rows on every data endpoint.
const DataKey = "data"

// ErrUnknownKind is returned for names that match no family or source.
var ErrUnknownKind = errors.New("unknown dataset family")

// Family is the capability configuration of one dataset family.
type Family struct {
	Kind           Kind
	DataPath       string
	MasterDataPath string
	DataKey        string

	// Required fields have no catalog default and must be supplied
	Required []string

	// Fields in request order
	Fields []string

	Rules []query.Rule
}

// Plan returns the expansion plan for the family.
func (f Family) Plan(allEditions bool) query.Plan {
	return query.Plan{
		Fields:      append([]string(nil), f.Fields...),
		Required:    append([]string(nil), f.Required...),
		Rules:       append([]query.Rule(nil), f.Rules...),
		AllEditions: allEditions,
	}
}

var outlookFields = []string{
	catalog.Scenario, catalog.Region, catalog.Edition, catalog.Country,
	catalog.Zone, catalog.Group, catalog.Indicator,
}

var families = []Family{
	{
		Kind:           Hourly,
		DataPath:       "/hourlyData",
		MasterDataPath: "/masterdata",
		Required:       []string{catalog.Scenario, catalog.Region, catalog.Country, catalog.Zone},
		Fields:         []string{catalog.Scenario, catalog.Region, catalog.Edition, catalog.Country, catalog.Zone},
		Rules:          []query.Rule{query.ZoneRule},
	},
	{
		Kind:           Monthly,
		DataPath:       "/monthlyData",
		MasterDataPath: "/masterdata",
		Required:       []string{catalog.Scenario, catalog.Region, catalog.Group},
		Fields:         outlookFields,
		Rules:          []query.Rule{query.ZoneRule, query.GroupIndicatorRule},
	},
	{
		Kind:           Annual,
		DataPath:       "/annualData",
		MasterDataPath: "/masterdata",
		Required:       []string{catalog.Scenario, catalog.Region, catalog.Group},
		Fields:         outlookFields,
		Rules:          []query.Rule{query.ZoneRule, query.GroupIndicatorRule},
	},
	{
		Kind:           GO,
		DataPath:       "/go/data",
		MasterDataPath: "/go/masterdata",
		Required:       []string{catalog.Scenario, catalog.Group},
		Fields:         []string{catalog.Scenario, catalog.Edition, catalog.Zone, catalog.Group, catalog.Indicator},
		Rules:          []query.Rule{query.GroupIndicatorRule},
	},
	{
		Kind:           PPA,
		DataPath:       "/ppa/data",
		MasterDataPath: "/ppa/masterdata",
		Required:       []string{catalog.Scenario, catalog.Zone},
		Fields:         []string{catalog.Scenario, catalog.Edition, catalog.Zone, catalog.Group},
	},
	{
		Kind:           Technology,
		DataPath:       "/technology/annualData",
		MasterDataPath: "/technology/masterdata",
		Fields: []string{
			catalog.Scenario, catalog.Edition, catalog.Country, catalog.Indicator,
			catalog.Technology, catalog.Category,
		},
		Rules: []query.Rule{query.TechnologyCategoryRule},
	},
}

// Lookup returns the family for kind.
func Lookup(kind Kind) (Family, error) {
	for _, f := range families {
		if f.Kind == kind {
			f.DataKey = DataKey
			return f, nil
		}
	}
	return Family{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// ParseKind resolves a family name case-insensitively.
func ParseKind(name string) (Kind, error) {
	n := strings.TrimSpace(name)
	for _, f := range families {
		if strings.EqualFold(string(f.Kind), n) {
			return f.Kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownKind, name, strings.Join(kindNames(), ", "))
}

// Kinds returns every family in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(families))
	for i, f := range families {
		out[i] = f.Kind
	}
	return out
}

func kindNames() []string {
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = strings.ToLower(string(f.Kind))
	}
	return names
}

// Source is a master data endpoint.
type Source struct {
	Name string
	Path string
}

// HydrogenSource serves hydrogen master data. It has no data family.
var HydrogenSource = Source{Name: "Hydrogen", Path: "/hydrogen/masterdata"}

// Sources returns every distinct master data endpoint.
func Sources() []Source {
	var out []Source
	seen := make(map[string]bool)
	for _, f := range families {
		if seen[f.MasterDataPath] {
			continue
		}
		seen[f.MasterDataPath] = true
		name := string(f.Kind)
		if f.MasterDataPath == "/masterdata" {
			name = "Outlook"
		}
		out = append(out, Source{Name: name, Path: f.MasterDataPath})
	}
	return append(out, HydrogenSource)
}

// ParseSource resolves a master data source by source name or by family.
func ParseSource(name string) (Source, error) {
	n := strings.TrimSpace(name)
	for _, s := range Sources() {
		if strings.EqualFold(s.Name, n) {
			return s, nil
		}
	}
	kind, err := ParseKind(n)
	if err != nil {
		return Source{}, err
	}
	f, _ := Lookup(kind)
	for _, s := range Sources() {
		if s.Path == f.MasterDataPath {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
