package profile

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/xtding233/gacha-simulator/internal/gacha"
)

// ValidateRaw checks semantic constraints of a RawProfile.
// All problems are reported together, wrapped in gacha.ErrInvalidConfiguration.
func ValidateRaw(cfg RawProfile) error {
	var errs []string

	// table
	for i, e := range cfg.Table {
		if e.Grade == "" {
			errs = append(errs, fmt.Sprintf("table[%d].grade is required", i))
		}
		if e.Weight <= 0 || e.Weight > 100 {
			errs = append(errs, fmt.Sprintf("table[%d].weight must be in (0,100]", i))
		}
	}

	// draw
	if cfg.Draw.Count != nil && *cfg.Draw.Count <= 0 {
		errs = append(errs, "draw.count must be >= 1")
	}
	if cfg.Draw.PityLimit != nil && *cfg.Draw.PityLimit <= 0 {
		errs = append(errs, "draw.pity_limit must be >= 1")
	}

	// cost (optional)
	if cfg.Cost != nil {
		if cfg.Cost.BundleSize != nil && *cfg.Cost.BundleSize <= 0 {
			errs = append(errs, "cost.bundle_size must be >= 1")
		}
		if cfg.Cost.BundleCost != nil && *cfg.Cost.BundleCost < 0 {
			errs = append(errs, "cost.unit_cost must be >= 0")
		}
	}

	// synthesis (optional)
	if s := cfg.Synthesis; s != nil {
		if s.Pity != nil && *s.Pity <= 0 {
			errs = append(errs, "synthesis.pity must be >= 1")
		}
		if s.Count != nil && *s.Count <= 0 {
			errs = append(errs, "synthesis.count must be >= 1")
		}
		for _, g := range lo.Keys(s.Rates) {
			if r := s.Rates[g]; r < 0 || r > 100 {
				errs = append(errs, fmt.Sprintf("synthesis.rates[%s] must be in [0,100]", g))
			}
		}
		if dup := lo.FindDuplicates(s.GradeOrder); len(dup) > 0 {
			errs = append(errs, fmt.Sprintf("synthesis.grade_order has duplicates: %v", dup))
		}
		if s.StartGrade != "" && len(s.GradeOrder) > 0 && !lo.Contains(s.GradeOrder, s.StartGrade) {
			errs = append(errs, "synthesis.start_grade must appear in synthesis.grade_order")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: profile validation failed: %s", gacha.ErrInvalidConfiguration, strings.Join(errs, "; "))
	}
	return nil
}
