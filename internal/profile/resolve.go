// resolve.go
package profile

import (
	"fmt"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/stats"
)

// Overrides carries per-request values that replace profile values.
type Overrides struct {
	TopTier       *string
	DrawCount     *int
	PityLimit     *int
	StartGrade    *string
	Attempts      *int
	SynthesisPity *int
}

type Resolver interface {
	// Returns merged RawProfile and the resolved Profile
	Resolve(name string, o Overrides) (RawProfile, Profile, error)
}

var _ Resolver = (*Loader)(nil)

// Resolve merges default -> named profile -> overrides, validates, and
// normalizes the result into engine parameters.
func (l *Loader) Resolve(name string, o Overrides) (RawProfile, Profile, error) {
	raw, err := l.LoadMerged(name)
	if err != nil {
		return RawProfile{}, Profile{}, err
	}
	raw = applyOverrides(raw, o)
	if err := ValidateRaw(raw); err != nil {
		return raw, Profile{}, err
	}
	p, err := Normalize(raw)
	if err != nil {
		return raw, Profile{}, err
	}
	if name == "" {
		name = DefaultName
	}
	p.Name = name
	return raw, p, nil
}

func applyOverrides(raw RawProfile, o Overrides) RawProfile {
	if o.TopTier != nil {
		raw.Draw.TopTier = *o.TopTier
	}
	if o.DrawCount != nil {
		raw.Draw.Count = o.DrawCount
	}
	if o.PityLimit != nil {
		raw.Draw.PityLimit = o.PityLimit
	}
	if o.StartGrade == nil && o.Attempts == nil && o.SynthesisPity == nil {
		return raw
	}
	s := SynthesisConfig{}
	if raw.Synthesis != nil {
		s = *raw.Synthesis
	}
	if o.StartGrade != nil {
		s.StartGrade = *o.StartGrade
	}
	if o.Attempts != nil {
		s.Count = o.Attempts
	}
	if o.SynthesisPity != nil {
		s.Pity = o.SynthesisPity
	}
	raw.Synthesis = &s
	return raw
}

// Normalize fills defaults and builds the probability table.
// A profile without table rows resolves with a nil Table.
func Normalize(raw RawProfile) (Profile, error) {
	p := Profile{
		Version:   raw.Version,
		TopTier:   raw.Draw.TopTier,
		DrawCount: valueOr(raw.Draw.Count, DefaultDrawCount),
		PityLimit: valueOr(raw.Draw.PityLimit, DefaultPityLimit),
		Pricing:   stats.DefaultPricing(),
		Synthesis: gacha.SynthesisParams{
			StartGrade:    DefaultStartGrade,
			Attempts:      DefaultSynthesisCount,
			PityThreshold: DefaultSynthesisPity,
			Rates:         gacha.DefaultSynthesisRates,
			Order:         gacha.DefaultGradeOrder,
		},
	}
	if p.TopTier == "" {
		p.TopTier = gacha.TopTier
	}
	if len(raw.Table) > 0 {
		t, err := gacha.NewTable(raw.Table)
		if err != nil {
			return Profile{}, fmt.Errorf("profile table: %w", err)
		}
		p.Table = t
	}
	if c := raw.Cost; c != nil {
		p.Pricing.BundleSize = valueOr(c.BundleSize, p.Pricing.BundleSize)
		p.Pricing.BundleCost = valueOr(c.BundleCost, p.Pricing.BundleCost)
		if c.Currency != "" {
			p.Pricing.Currency = c.Currency
		}
	}
	if s := raw.Synthesis; s != nil {
		if len(s.GradeOrder) > 0 {
			p.Synthesis.Order = gacha.GradeOrder(s.GradeOrder)
		}
		if len(s.Rates) > 0 {
			p.Synthesis.Rates = gacha.RateTable(s.Rates)
		}
		if s.StartGrade != "" {
			p.Synthesis.StartGrade = s.StartGrade
		}
		p.Synthesis.Attempts = valueOr(s.Count, p.Synthesis.Attempts)
		p.Synthesis.PityThreshold = valueOr(s.Pity, p.Synthesis.PityThreshold)
	}
	return p, nil
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
