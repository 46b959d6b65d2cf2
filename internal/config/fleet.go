package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FleetFile is the YAML definition of one fleet: its asset, the actor
// addresses, the tip settings and the ark roster. Everything here is
// validated before any component is constructed.
type FleetFile struct {
	Asset     string `yaml:"asset"`
	Commander string `yaml:"commander"`
	Governor  string `yaml:"governor"`
	Raft      string `yaml:"raft"`
	TipJar    string `yaml:"tip_jar"`

	// TipRateBps overrides DefaultTipRateBps when set.
	TipRateBps *uint64 `yaml:"tip_rate_bps,omitempty"`

	Arks []ArkSpec `yaml:"arks"`
}

// ArkSpec describes one ark to construct at startup.
type ArkSpec struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"` // "lending" or "buffer"

	// DepositCap is the cap in the asset's smallest unit, as a decimal
	// string to survive values beyond int64.
	DepositCap string `yaml:"deposit_cap,omitempty"`

	// AnnualRate is the simulated supply rate for sim mode, e.g. "0.045".
	AnnualRate string `yaml:"annual_rate,omitempty"`

	MoveIn  *bool `yaml:"move_in,omitempty"`
	MoveOut *bool `yaml:"move_out,omitempty"`
}

// LoadFleetFile reads and validates the fleet definition at path.
func LoadFleetFile(path string) (*FleetFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fleet config %s: %w", path, err)
	}

	var ff FleetFile
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		return nil, fmt.Errorf("parsing fleet config %s: %w", path, err)
	}
	if err := ff.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fleet config %s: %w", path, err)
	}
	return &ff, nil
}

// Validate checks the fleet definition for completeness.
func (f *FleetFile) Validate() error {
	if f.Asset == "" {
		return fmt.Errorf("asset is required")
	}
	if f.Commander == "" {
		return fmt.Errorf("commander address is required")
	}
	if f.Governor == "" {
		return fmt.Errorf("governor address is required")
	}
	if f.Raft == "" {
		return fmt.Errorf("raft address is required")
	}
	if f.TipJar == "" {
		return fmt.Errorf("tip_jar address is required")
	}
	if len(f.Arks) == 0 {
		return fmt.Errorf("at least one ark is required")
	}
	seen := make(map[string]bool, len(f.Arks))
	buffers := 0
	for i, spec := range f.Arks {
		if spec.ID == "" {
			return fmt.Errorf("ark %d: id is required", i)
		}
		if seen[spec.ID] {
			return fmt.Errorf("ark %s: duplicate id", spec.ID)
		}
		seen[spec.ID] = true
		switch spec.Type {
		case "lending":
			if spec.DepositCap == "" {
				return fmt.Errorf("ark %s: deposit_cap is required for lending arks", spec.ID)
			}
		case "buffer":
			buffers++
		default:
			return fmt.Errorf("ark %s: unknown type %q", spec.ID, spec.Type)
		}
	}
	if buffers != 1 {
		return fmt.Errorf("exactly one buffer ark is required, found %d", buffers)
	}
	return nil
}
