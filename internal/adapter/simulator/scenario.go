package simulator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Fault modes.
const (
	FaultNormal   = "normal"   // live and cached paths both answer
	FaultDegraded = "degraded" // live callback reports a modem error
	FaultOffline  = "offline"  // nothing answers
)

// Scenario describes what the simulated platform reports.
type Scenario struct {
	Platform   string        `yaml:"platform"`
	Revision   int           `yaml:"revision"`
	FaultMode  string        `yaml:"fault_mode"`
	Permission *bool         `yaml:"permission"`
	LiveDelay  time.Duration `yaml:"live_delay"`

	// Cells are returned by both paths unless LiveCells is set.
	Cells     []CellSpec `yaml:"cells"`
	LiveCells []CellSpec `yaml:"live_cells"`

	Subscriptions []SubscriptionSpec `yaml:"subscriptions"`
}

// CellSpec is one platform cell entry. Fields holds the accessor values by
// name (ci, tac, pci, mcc, mnc, dbm, nci, ...).
type CellSpec struct {
	Technology string                 `yaml:"technology"`
	Fields     map[string]interface{} `yaml:"fields"`
}

// SubscriptionSpec is one provider entry on subscription-based platforms.
type SubscriptionSpec struct {
	ServiceID       string      `yaml:"service_id"`
	RadioTechnology string      `yaml:"radio_technology"`
	Carrier         CarrierSpec `yaml:"carrier"`

	// Attributes are exposed on the platform handle, keyed by service.
	Attributes map[string]interface{} `yaml:"attributes"`
}

// CarrierSpec holds carrier attributes; empty strings are reported absent.
type CarrierSpec struct {
	Name              string `yaml:"name"`
	ISOCountryCode    string `yaml:"iso_country_code"`
	MobileCountryCode string `yaml:"mcc"`
	MobileNetworkCode string `yaml:"mnc"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Validate checks the scenario and fills defaults.
func (s *Scenario) Validate() error {
	if s.Platform == "" {
		s.Platform = "android"
	}
	if s.FaultMode == "" {
		s.FaultMode = FaultNormal
	}
	switch s.FaultMode {
	case FaultNormal, FaultDegraded, FaultOffline:
	default:
		return fmt.Errorf("unknown fault mode %q", s.FaultMode)
	}
	if s.Revision < 0 {
		return fmt.Errorf("revision must be non-negative, got %d", s.Revision)
	}
	if s.LiveDelay < 0 {
		return fmt.Errorf("live_delay must be non-negative, got %v", s.LiveDelay)
	}
	for i, c := range append(append([]CellSpec(nil), s.Cells...), s.LiveCells...) {
		if c.Technology == "" {
			return fmt.Errorf("cell %d: technology must be set", i)
		}
	}
	return nil
}

// DefaultScenario returns a small neighbourhood for the given platform:
// cell-based platforms get one cell per technology, "ios" gets two
// subscriptions.
func DefaultScenario(platform string, revision int) Scenario {
	if platform == "ios" {
		return Scenario{
			Platform:  platform,
			Revision:  revision,
			FaultMode: FaultNormal,
			Subscriptions: []SubscriptionSpec{
				{
					ServiceID:       "0000000100000001",
					RadioTechnology: "CTRadioAccessTechnologyNR",
					Carrier:         CarrierSpec{Name: "Carrier A", ISOCountryCode: "us", MobileCountryCode: "310", MobileNetworkCode: "260"},
					Attributes:      map[string]interface{}{"signalStrength": -88},
				},
				{
					ServiceID:       "0000000100000002",
					RadioTechnology: "CTRadioAccessTechnologyLTE",
					Carrier:         CarrierSpec{Name: "Carrier B", ISOCountryCode: "us", MobileCountryCode: "310", MobileNetworkCode: "410"},
				},
			},
		}
	}
	return Scenario{
		Platform:  platform,
		Revision:  revision,
		FaultMode: FaultNormal,
		Cells: []CellSpec{
			{Technology: "CellInfoLte", Fields: map[string]interface{}{"ci": 12345678, "tac": 1001, "pci": 301, "mcc": "310", "mnc": "260", "dbm": -95}},
			{Technology: "CellInfoNr", Fields: map[string]interface{}{"nci": 68719476735, "tac": 2002, "pci": 503, "mcc": "310", "mnc": "260", "ssRsrp": -101}},
			{Technology: "CellInfoGsm", Fields: map[string]interface{}{"cid": 4211, "lac": 7, "mcc": "310", "mnc": "260", "dbm": -77}},
			{Technology: "CellInfoWcdma", Fields: map[string]interface{}{"cid": 268435455, "lac": 65535, "mcc": "310", "mnc": "410", "dbm": -83}},
			{Technology: "CellInfoCdma", Fields: map[string]interface{}{"systemId": 4139, "networkId": 21, "dbm": -90}},
		},
	}
}
