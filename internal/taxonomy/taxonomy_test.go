package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	tax := Default()
	if err := tax.Validate(); err != nil {
		t.Fatalf("default taxonomy invalid: %v", err)
	}

	for _, name := range []string{CoreSCADA, WaterWastewater, Mining, OilGas, HVAC, "communication", "integration", "project_types", "service_types"} {
		if _, ok := tax[name]; !ok {
			t.Fatalf("default taxonomy missing category %s", name)
		}
	}

	core := tax[CoreSCADA].Weight
	for name, cat := range tax {
		if name == CoreSCADA {
			continue
		}
		if cat.Weight >= core {
			t.Fatalf("category %s weight %d not below core weight %d", name, cat.Weight, core)
		}
	}

	// "distribution" belongs to oil/gas (pipeline distribution) alongside
	// water's "distribution network"; both lists carry their full vocabulary.
	if !contains(tax[OilGas].Terms, "distribution") {
		t.Fatal("oil_gas terms missing \"distribution\"")
	}
	if !contains(tax[WaterWastewater].Terms, "distribution network") {
		t.Fatal("water_wastewater terms missing \"distribution network\"")
	}
}

func contains(terms []string, want string) bool {
	for _, term := range terms {
		if term == want {
			return true
		}
	}
	return false
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := map[string]Taxonomy{
		"empty":          {},
		"zero weight":    {"x": {Weight: 0, Terms: []string{"a"}}},
		"no terms":       {"x": {Weight: 1}},
		"blank term":     {"x": {Weight: 1, Terms: []string{"  "}}},
		"uppercase term": {"x": {Weight: 1, Terms: []string{"SCADA"}}},
	}

	for name, tax := range cases {
		if err := tax.Validate(); err == nil {
			t.Fatalf("%s taxonomy passed validation", name)
		}
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `
core_scada:
  weight: 10
  terms: [scada, telemetry]
water_wastewater:
  weight: 5
  terms: [wastewater]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tax, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if tax[CoreSCADA].Weight != 10 || len(tax[CoreSCADA].Terms) != 2 {
		t.Fatalf("unexpected core category: %+v", tax[CoreSCADA])
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	// JSON is a YAML subset, so the original system's JSON keyword files
	// load unchanged.
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	content := `{"core_scada": {"weight": 10, "terms": ["scada"]}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tax, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if tax[CoreSCADA].Weight != 10 {
		t.Fatalf("unexpected weight: %d", tax[CoreSCADA].Weight)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("core_scada: {weight: 0, terms: [scada]}"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("invalid taxonomy loaded without error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file loaded without error")
	}
}
