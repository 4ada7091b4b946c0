package stats

import (
	"github.com/shopspring/decimal"

	"github.com/xtding233/gacha-simulator/internal/gacha"
)

// DrawSummary is everything a presentation layer shows for one draw run.
type DrawSummary struct {
	Draws          int              `json:"draws"`
	TopTier        string           `json:"top_tier"`
	TopTierCount   int              `json:"top_tier_count"`
	GradeCounts    []GradeCount     `json:"grade_counts"`
	PityCount      int              `json:"pity_count"`
	Cross          CrossTable       `json:"cross_table"`
	Cost           Cost             `json:"cost"`
	CostPerTopTier *decimal.Decimal `json:"cost_per_top_tier,omitempty"`
}

// SummarizeDraws aggregates a draw run. topTier is the grade cost is averaged over.
func SummarizeDraws(outcomes []gacha.DrawOutcome, topTier string, p Pricing) (DrawSummary, error) {
	if topTier == "" {
		topTier = gacha.TopTier
	}
	cost, err := DrawCost(len(outcomes), p)
	if err != nil {
		return DrawSummary{}, err
	}
	counts := GradeCounts(outcomes)
	s := DrawSummary{
		Draws:        len(outcomes),
		TopTier:      topTier,
		TopTierCount: CountOf(counts, topTier),
		GradeCounts:  counts,
		PityCount:    PityCount(outcomes),
		Cross:        CrossTabulate(outcomes),
		Cost:         cost,
	}
	if avg, ok := cost.PerTopTier(s.TopTierCount); ok {
		s.CostPerTopTier = &avg
	}
	return s, nil
}

// SynthesisSummary aggregates a synthesis run.
type SynthesisSummary struct {
	Attempts      int          `json:"attempts"`
	Successes     int          `json:"successes"`
	Failures      int          `json:"failures"`
	PitySuccesses int          `json:"pity_successes"`
	SuccessRate   float64      `json:"success_rate"` // percent
	GradeCounts   []GradeCount `json:"grade_counts"`
	Cross         CrossTable   `json:"cross_table"`
}

// SummarizeSynthesis aggregates a synthesis run.
func SummarizeSynthesis(outcomes []gacha.SynthesisOutcome) SynthesisSummary {
	s := SynthesisSummary{
		Attempts:      len(outcomes),
		PitySuccesses: PityCount(outcomes),
		GradeCounts:   GradeCounts(outcomes),
		Cross:         CrossTabulate(outcomes),
	}
	for _, o := range outcomes {
		if o.Succeeded {
			s.Successes++
		}
	}
	s.Failures = s.Attempts - s.Successes
	if s.Attempts > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Attempts) * 100
	}
	return s
}
