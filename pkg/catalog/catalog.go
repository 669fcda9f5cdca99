// Package catalog parses plan catalog files. The catalog is reference data
// maintained by operators in YAML and loaded into the plans table by the
// seed command and the admin CLI.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/menucraft/api/pkg/domain/plan"
)

// File is the on-disk catalog format.
type File struct {
	Plans []PlanSpec `yaml:"plans"`
}

// PlanSpec is one plan definition.
type PlanSpec struct {
	Tier         string          `yaml:"tier"`
	Name         string          `yaml:"name"`
	PriceMonthly int64           `yaml:"price_monthly"`
	Limits       plan.Limits     `yaml:"limits"`
	Features     map[string]bool `yaml:"features"`
	Active       *bool           `yaml:"active"`
}

// Load reads and validates a catalog file, returning domain plans ready to
// upsert. A plan with no active flag defaults to active.
func Load(path string) ([]*plan.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse parses catalog YAML.
func Parse(raw []byte) ([]*plan.Plan, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("catalog file defines no plans")
	}

	plans := make([]*plan.Plan, 0, len(f.Plans))
	seen := make(map[plan.Tier]bool, len(f.Plans))
	for i, spec := range f.Plans {
		tier, err := plan.ParseTier(spec.Tier)
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", i, err)
		}
		if seen[tier] {
			return nil, fmt.Errorf("plan %d: duplicate tier %s", i, tier)
		}
		seen[tier] = true

		p, err := plan.New(tier, spec.Name, spec.PriceMonthly, spec.Limits, spec.Features)
		if err != nil {
			return nil, fmt.Errorf("plan %d (%s): %w", i, tier, err)
		}
		if spec.Active != nil && !*spec.Active {
			p.Retire()
		}
		plans = append(plans, p)
	}
	return plans, nil
}
