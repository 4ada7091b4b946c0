package gacha

// DrawOutcome is the result of one draw trial.
type DrawOutcome struct {
	Trial         int    `json:"trial"`
	Grade         string `json:"grade"`
	Item          string `json:"item"`
	PityTriggered bool   `json:"pity_triggered"`
}

// GradeKey implements stats.Outcome.
func (o DrawOutcome) GradeKey() string { return o.Grade }

// Pity implements stats.Outcome.
func (o DrawOutcome) Pity() bool { return o.PityTriggered }

// DrawEngine runs weighted draws against a Table with a hard pity on TopTier.
type DrawEngine struct {
	TopTier string       // grade pity guarantees; empty means TopTier
	RNG     RandomSource // nil means DefaultRNG
}

// SimulateDraws runs drawCount draws with the default top tier.
func SimulateDraws(table Table, drawCount, pityLimit int, rng RandomSource) ([]DrawOutcome, error) {
	return DrawEngine{RNG: rng}.Simulate(table, drawCount, pityLimit)
}

// Simulate runs drawCount trials and returns one outcome per trial, in order.
//
// Per trial:
//   - if the pity streak has reached pityLimit and the table holds a top-tier entry,
//     one top-tier entry is chosen uniformly and the streak resets
//   - otherwise r is drawn from [0,100) and the first entry with Cumulative > r wins;
//     a top-tier result resets the streak, anything else extends it
//
// PityTriggered records whether pity was due on that trial. When pity is due but the
// table has no top-tier entry, the trial falls back to a normal weighted draw.
func (e DrawEngine) Simulate(table Table, drawCount, pityLimit int) ([]DrawOutcome, error) {
	if err := validatePositive("draw_count", drawCount); err != nil {
		return nil, err
	}
	if err := validatePositive("pity_limit", pityLimit); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	rng := e.RNG
	if rng == nil {
		rng = DefaultRNG()
	}
	top := e.TopTier
	if top == "" {
		top = TopTier
	}
	pool := table.Pool(top)
	pity := newPityCounter(pityLimit)

	out := make([]DrawOutcome, 0, drawCount)
	for i := 1; i <= drawCount; i++ {
		isPity := pity.due()
		var chosen Entry
		if isPity && len(pool) > 0 {
			chosen = pool[rng.IntN(len(pool))]
			pity.record(true)
		} else {
			chosen = table.pick(rng.Float64() * 100)
			pity.record(chosen.Grade == top)
		}
		out = append(out, DrawOutcome{
			Trial:         i,
			Grade:         chosen.Grade,
			Item:          chosen.Label,
			PityTriggered: isPity,
		})
	}
	return out, nil
}
