package dataset

import (
	"errors"
	"testing"

	"github.com/Sternrassler/thema-client/pkg/query"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "hourly", want: Hourly},
		{input: "Monthly", want: Monthly},
		{input: " ANNUAL ", want: Annual},
		{input: "go", want: GO},
		{input: "ppa", want: PPA},
		{input: "technology", want: Technology},
		{input: "hydrogen", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Errorf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		kind           Kind
		dataPath       string
		masterDataPath string
		required       int
		rules          []string
	}{
		{Hourly, "/hourlyData", "/masterdata", 4, []string{"zone"}},
		{Monthly, "/monthlyData", "/masterdata", 3, []string{"zone", "group-indicator"}},
		{Annual, "/annualData", "/masterdata", 3, []string{"zone", "group-indicator"}},
		{GO, "/go/data", "/go/masterdata", 2, []string{"group-indicator"}},
		{PPA, "/ppa/data", "/ppa/masterdata", 2, nil},
		{Technology, "/technology/annualData", "/technology/masterdata", 0, []string{"technology-category"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f, err := Lookup(tt.kind)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if f.DataPath != tt.dataPath || f.MasterDataPath != tt.masterDataPath {
				t.Errorf("paths = %s, %s; want %s, %s", f.DataPath, f.MasterDataPath, tt.dataPath, tt.masterDataPath)
			}
			if f.DataKey != DataKey {
				t.Errorf("DataKey = %q, want %q", f.DataKey, DataKey)
			}
			if len(f.Required) != tt.required {
				t.Errorf("len(Required) = %d, want %d", len(f.Required), tt.required)
			}
			var names []string
			for _, r := range f.Rules {
				names = append(names, r.Name)
			}
			if len(names) != len(tt.rules) {
				t.Fatalf("rules = %v, want %v", names, tt.rules)
			}
			for i := range names {
				if names[i] != tt.rules[i] {
					t.Errorf("rules = %v, want %v", names, tt.rules)
				}
			}
		})
	}

	if _, err := Lookup("Weekly"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Lookup(Weekly) error = %v, want ErrUnknownKind", err)
	}
}

func TestFamily_PlanIsACopy(t *testing.T) {
	f, _ := Lookup(Monthly)
	p := f.Plan(true)
	p.Fields[0] = "changed"
	p.Rules[0] = query.Rule{}

	again, _ := Lookup(Monthly)
	if again.Fields[0] != "scenario" || again.Rules[0].Name != "zone" {
		t.Errorf("family configuration was modified through its plan")
	}
	if !p.AllEditions {
		t.Errorf("AllEditions not carried into plan")
	}
}

func TestRequiredFieldsAreRequestFields(t *testing.T) {
	for _, kind := range Kinds() {
		f, _ := Lookup(kind)
		fields := make(map[string]bool)
		for _, name := range f.Fields {
			fields[name] = true
		}
		for _, name := range f.Required {
			if !fields[name] {
				t.Errorf("%s: required field %q is not a request field", kind, name)
			}
		}
	}
}

func TestSources(t *testing.T) {
	sources := Sources()
	want := []string{"/masterdata", "/go/masterdata", "/ppa/masterdata", "/technology/masterdata", "/hydrogen/masterdata"}
	if len(sources) != len(want) {
		t.Fatalf("Sources() = %v", sources)
	}
	for i, s := range sources {
		if s.Path != want[i] {
			t.Errorf("Sources()[%d].Path = %q, want %q", i, s.Path, want[i])
		}
	}

	tests := []struct {
		name string
		path string
	}{
		{"hydrogen", "/hydrogen/masterdata"},
		{"outlook", "/masterdata"},
		{"monthly", "/masterdata"},
		{"Technology", "/technology/masterdata"},
	}
	for _, tt := range tests {
		s, err := ParseSource(tt.name)
		if err != nil {
			t.Errorf("ParseSource(%q) error = %v", tt.name, err)
			continue
		}
		if s.Path != tt.path {
			t.Errorf("ParseSource(%q).Path = %q, want %q", tt.name, s.Path, tt.path)
		}
	}
	if _, err := ParseSource("weather"); err == nil {
		t.Error("ParseSource(weather) expected error")
	}
}
