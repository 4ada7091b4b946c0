// types.go
package profile

import (
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/stats"
)

// RawProfile is a simulation profile as loaded from YAML.
// Pointer fields distinguish "unset" from zero so profiles can be layered.
type RawProfile struct {
	Version   string           `yaml:"version" json:"version"`
	Notes     string           `yaml:"notes,omitempty" json:"notes,omitempty"`
	Table     []gacha.RawEntry `yaml:"table,omitempty" json:"table,omitempty"`
	Draw      DrawConfig       `yaml:"draw" json:"draw"`
	Cost      *CostConfig      `yaml:"cost,omitempty" json:"cost,omitempty"`
	Synthesis *SynthesisConfig `yaml:"synthesis,omitempty" json:"synthesis,omitempty"`
}

type DrawConfig struct {
	TopTier   string `yaml:"top_tier,omitempty" json:"top_tier,omitempty"`
	Count     *int   `yaml:"count,omitempty" json:"count,omitempty"`
	PityLimit *int   `yaml:"pity_limit,omitempty" json:"pity_limit,omitempty"`
}

type CostConfig struct {
	BundleSize *int   `yaml:"bundle_size,omitempty" json:"bundle_size,omitempty"`
	BundleCost *int64 `yaml:"unit_cost,omitempty" json:"unit_cost,omitempty"`
	Currency   string `yaml:"currency,omitempty" json:"currency,omitempty"`
}

type SynthesisConfig struct {
	GradeOrder []string       `yaml:"grade_order,omitempty" json:"grade_order,omitempty"`
	Rates      map[string]int `yaml:"rates,omitempty" json:"rates,omitempty"`
	Pity       *int           `yaml:"pity,omitempty" json:"pity,omitempty"`
	Count      *int           `yaml:"count,omitempty" json:"count,omitempty"`
	StartGrade string         `yaml:"start_grade,omitempty" json:"start_grade,omitempty"`
}

// Fallbacks used when neither default.yaml nor the named profile sets a value.
const (
	DefaultDrawCount      = 100
	DefaultPityLimit      = 20
	DefaultSynthesisCount = 20
	DefaultSynthesisPity  = 5
	DefaultStartGrade     = "A"
)

// Profile is a resolved profile with engine-ready parameters.
type Profile struct {
	Name      string                `json:"name"`
	Version   string                `json:"version"` // effective config version for tracing
	Table     gacha.Table           `json:"table"`   // nil when the profile has no table
	TopTier   string                `json:"top_tier"`
	DrawCount int                   `json:"draw_count"`
	PityLimit int                   `json:"pity_limit"`
	Pricing   stats.Pricing         `json:"pricing"`
	Synthesis gacha.SynthesisParams `json:"synthesis"`
}
