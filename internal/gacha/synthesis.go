package gacha

import (
	"fmt"

	"github.com/samber/lo"
)

// FailedKey is the grade key synthesis failures are counted under.
const FailedKey = "failed"

// DefaultGradeOrder is the upgrade ladder from lowest to highest grade.
var DefaultGradeOrder = GradeOrder{"C", "B", "A", "S", "R", "SR"}

// DefaultSynthesisRates are per-grade success percentages.
var DefaultSynthesisRates = RateTable{"C": 25, "B": 21, "A": 18, "S": 16, "R": 15}

// RateTable maps a grade to its synthesis success rate in percent, [0,100].
type RateTable map[string]int

// Rate returns the rate for grade, or 0 when none is configured.
func (r RateTable) Rate(grade string) int {
	return r[grade]
}

// GradeOrder lists grades from lowest to highest.
type GradeOrder []string

// Contains reports whether g is on the ladder.
func (o GradeOrder) Contains(g string) bool {
	return lo.Contains(o, g)
}

// Next returns the grade after g. The top grade maps to itself.
// Grades not on the ladder are returned unchanged.
func (o GradeOrder) Next(g string) string {
	idx := lo.IndexOf(o, g)
	if idx < 0 || idx+1 >= len(o) {
		return g
	}
	return o[idx+1]
}

// SynthesisOutcome is the result of one synthesis attempt.
// ToGrade is nil when the attempt failed.
type SynthesisOutcome struct {
	Trial         int     `json:"trial"`
	FromGrade     string  `json:"from_grade"`
	ToGrade       *string `json:"to_grade"`
	Succeeded     bool    `json:"succeeded"`
	PityTriggered bool    `json:"pity_triggered"`
}

// GradeKey implements stats.Outcome: the resulting grade, or FailedKey.
func (o SynthesisOutcome) GradeKey() string {
	if !o.Succeeded || o.ToGrade == nil {
		return FailedKey
	}
	return *o.ToGrade
}

// Pity implements stats.Outcome.
func (o SynthesisOutcome) Pity() bool { return o.PityTriggered }

// SynthesisParams configures one synthesis run.
type SynthesisParams struct {
	StartGrade    string     `json:"start_grade"`
	Attempts      int        `json:"attempts"`
	PityThreshold int        `json:"pity_threshold"`
	Rates         RateTable  `json:"rates"`
	Order         GradeOrder `json:"grade_order"`
}

func (p SynthesisParams) validate() error {
	if err := validatePositive("attempt_count", p.Attempts); err != nil {
		return err
	}
	if err := validatePositive("pity_threshold", p.PityThreshold); err != nil {
		return err
	}
	if !p.Order.Contains(p.StartGrade) {
		return fmt.Errorf("%w: start grade %q not in grade order %v", ErrInvalidConfiguration, p.StartGrade, []string(p.Order))
	}
	for g, r := range p.Rates {
		if r < 0 || r > 100 {
			return fmt.Errorf("%w: rate for %q must be in [0,100], got %d", ErrInvalidConfiguration, g, r)
		}
	}
	return nil
}

// SimulateSynthesis repeats synthesis from StartGrade Attempts times.
//
// Every attempt draws r from [1,100]. It succeeds when pity is due or r <= rate.
// Success targets Order.Next(StartGrade) and resets the fail streak; failure extends it.
// StartGrade never advances within a run. A grade without a rate only succeeds via pity.
func SimulateSynthesis(p SynthesisParams, rng RandomSource) ([]SynthesisOutcome, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	target := p.Order.Next(p.StartGrade)
	rate := p.Rates.Rate(p.StartGrade)
	streak := newPityCounter(p.PityThreshold)

	out := make([]SynthesisOutcome, 0, p.Attempts)
	for i := 1; i <= p.Attempts; i++ {
		isPity := streak.due()
		r := rng.IntN(100) + 1
		if isPity || r <= rate {
			to := target
			out = append(out, SynthesisOutcome{
				Trial:         i,
				FromGrade:     p.StartGrade,
				ToGrade:       &to,
				Succeeded:     true,
				PityTriggered: isPity,
			})
			streak.record(true)
			continue
		}
		out = append(out, SynthesisOutcome{
			Trial:     i,
			FromGrade: p.StartGrade,
		})
		streak.record(false)
	}
	return out, nil
}
