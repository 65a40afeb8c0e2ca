package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known category names the classifier derives industry flags from.
const (
	CoreSCADA       = "core_scada"
	WaterWastewater = "water_wastewater"
	Mining          = "mining"
	OilGas          = "oil_gas"
	HVAC            = "hvac"
)

// Category is one weighted term list. Terms are lowercase phrases matched as
// whole words; a term may intentionally appear in more than one category.
type Category struct {
	Weight int      `yaml:"weight" json:"weight"`
	Terms  []string `yaml:"terms" json:"terms"`
}

// Taxonomy maps category names to their weighted term lists. It is plain data:
// the classifier receives a Taxonomy as configuration and never mutates it.
type Taxonomy map[string]Category

// Load reads a taxonomy from a YAML (or JSON, which YAML subsumes) file.
func Load(path string) (Taxonomy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}

	var tax Taxonomy
	if err := yaml.Unmarshal(raw, &tax); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}

	if err := tax.Validate(); err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}

	return tax, nil
}

// Validate rejects taxonomies the classifier cannot score against.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("no categories defined")
	}

	for name, cat := range t {
		if cat.Weight <= 0 {
			return fmt.Errorf("category %s: weight must be positive, got %d", name, cat.Weight)
		}
		if len(cat.Terms) == 0 {
			return fmt.Errorf("category %s: no terms defined", name)
		}
		for _, term := range cat.Terms {
			if strings.TrimSpace(term) == "" {
				return fmt.Errorf("category %s: empty term", name)
			}
			if term != strings.ToLower(term) {
				return fmt.Errorf("category %s: term %q must be lowercase", name, term)
			}
		}
	}

	return nil
}

// Default returns the built-in taxonomy. Core SCADA terms carry the highest
// weight; industry verticals sit in the middle; communication, integration and
// project/service vocabularies contribute peripheral signal.
func Default() Taxonomy {
	return Taxonomy{
		CoreSCADA: {
			Weight: 10,
			Terms: []string{
				"scada", "supervisory control", "data acquisition",
				"plc", "programmable logic controller",
				"rtu", "remote terminal unit",
				"hmi", "human machine interface",
				"automation", "control system", "telemetry",
				"distributed control system", "dcs",
			},
		},
		WaterWastewater: {
			Weight: 5,
			Terms: []string{
				"water treatment", "wastewater", "pump station", "lift station",
				"flow meter", "level sensor", "pressure sensor", "filtration",
				"aeration", "chlorination", "disinfection", "sedimentation",
				"activated sludge", "clarifier", "reservoir", "distribution network",
			},
		},
		Mining: {
			Weight: 5,
			Terms: []string{
				"mining", "mine", "extraction", "crusher", "conveyor",
				"beneficiation", "flotation", "leaching", "grinding",
				"screening", "classification", "concentration", "tailings",
				"dewatering", "ventilation", "hoisting", "drilling",
			},
		},
		OilGas: {
			Weight: 5,
			Terms: []string{
				"oil", "gas", "pipeline", "wellhead", "separator",
				"compressor", "metering", "custody transfer", "drilling",
				"production", "injection", "gathering", "processing",
				"refining", "storage", "distribution", "flare",
			},
		},
		HVAC: {
			Weight: 5,
			Terms: []string{
				"hvac", "heating", "air conditioning", "building automation",
				"building management system", "bms", "energy management",
				"temperature control", "humidity control", "climate control",
				"smart building", "facility management",
			},
		},
		"communication": {
			Weight: 3,
			Terms: []string{
				"ethernet", "tcp/ip", "modbus", "dnp3", "opc ua",
				"mqtt", "cellular", "radio", "satellite", "wireless",
				"fiber optic", "network", "communication", "protocol",
			},
		},
		"integration": {
			Weight: 3,
			Terms: []string{
				"integration", "interface", "connect", "api", "data exchange",
				"interoperability", "middleware", "enterprise", "erp",
				"mes", "historian", "database", "cloud", "iot",
			},
		},
		"project_types": {
			Weight: 2,
			Terms: []string{
				"upgrade", "replacement", "expansion", "installation",
				"modernization", "migration", "standardization", "consolidation",
				"virtualization", "cybersecurity", "security",
			},
		},
		"service_types": {
			Weight: 2,
			Terms: []string{
				"design", "engineering", "installation", "configuration",
				"programming", "integration", "testing", "commissioning",
				"training", "support", "maintenance", "consulting",
			},
		},
	}
}
