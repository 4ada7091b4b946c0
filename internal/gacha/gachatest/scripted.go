// Package gachatest provides deterministic random sources for engine tests.
package gachatest

// ScriptedRNG replays fixed sequences. Floats feeds Float64 and Ints feeds IntN;
// each sequence wraps around when exhausted, and an empty sequence yields 0.
// Int values are reduced modulo n, so scripting 17 for IntN(100) yields 17.
type ScriptedRNG struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

// NewScriptedRNG returns a source that replays floats and ints in order.
func NewScriptedRNG(floats []float64, ints []int) *ScriptedRNG {
	return &ScriptedRNG{Floats: floats, Ints: ints}
}

// Percent scripts Float64 so that a draw scaled to [0,100) lands exactly on each r.
func Percent(rs ...float64) *ScriptedRNG {
	fs := make([]float64, len(rs))
	for i, r := range rs {
		fs[i] = r / 100
	}
	return &ScriptedRNG{Floats: fs}
}

// Rolls scripts IntN(100)+1 results in [1,100], as synthesis draws them.
func Rolls(rs ...int) *ScriptedRNG {
	is := make([]int, len(rs))
	for i, r := range rs {
		is[i] = r - 1
	}
	return &ScriptedRNG{Ints: is}
}

func (s *ScriptedRNG) Float64() float64 {
	defer func() { s.fi++ }()
	if len(s.Floats) == 0 {
		return 0
	}
	return s.Floats[s.fi%len(s.Floats)]
}

func (s *ScriptedRNG) IntN(n int) int {
	defer func() { s.ii++ }()
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)] % n
	if v < 0 {
		v += n
	}
	return v
}

// FloatCalls reports how many Float64 values were consumed.
func (s *ScriptedRNG) FloatCalls() int { return s.fi }

// IntCalls reports how many IntN values were consumed.
func (s *ScriptedRNG) IntCalls() int { return s.ii }
