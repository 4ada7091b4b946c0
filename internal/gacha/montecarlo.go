package gacha

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Stats summarizes one metric across batch runs.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	mean := float64(lo.Sum(xs)) / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// BatchOptions controls how many runs a batch repeats and how they are seeded.
// Run i uses NewSeededRNG(Seed + i), so a batch is reproducible regardless of Workers.
type BatchOptions struct {
	Runs    int
	Seed    uint64
	Workers int // <= 0 means 1
}

func (o BatchOptions) validate() error {
	return validatePositive("runs", o.Runs)
}

// runSample is the per-run metric vector shared by both batch kinds.
// First is the 1-based trial of the first qualifying result, 0 if none occurred.
type runSample struct {
	Hits  int
	Pity  int
	First int
}

// runBatch executes run for every index with at most Workers in flight.
// Cancelling ctx stops scheduling further runs.
func runBatch(ctx context.Context, o BatchOptions, run func(rng RandomSource) (runSample, error)) ([]runSample, error) {
	workers := o.Workers
	if workers <= 0 {
		workers = 1
	}
	samples := make([]runSample, o.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < o.Runs; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s, err := run(NewSeededRNG(o.Seed + uint64(i)))
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			samples[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// BatchResult summarizes a batch of whole runs.
// Hits counts top-tier draws (draw batches) or successes (synthesis batches).
// First only covers runs that had at least one hit; Misses counts the others.
type BatchResult struct {
	Runs   int   `json:"runs"`
	Hits   Stats `json:"hits"`
	Pity   Stats `json:"pity"`
	First  Stats `json:"first"`
	Misses int   `json:"misses"`
}

func summarizeBatch(samples []runSample) BatchResult {
	firsts := lo.FilterMap(samples, func(s runSample, _ int) (int, bool) { return s.First, s.First > 0 })
	return BatchResult{
		Runs:   len(samples),
		Hits:   calcStats(lo.Map(samples, func(s runSample, _ int) int { return s.Hits })),
		Pity:   calcStats(lo.Map(samples, func(s runSample, _ int) int { return s.Pity })),
		First:  calcStats(firsts),
		Misses: len(samples) - len(firsts),
	}
}

// RunDrawBatch repeats a full draw run o.Runs times.
func RunDrawBatch(ctx context.Context, e DrawEngine, table Table, drawCount, pityLimit int, o BatchOptions) (BatchResult, error) {
	if err := o.validate(); err != nil {
		return BatchResult{}, err
	}
	top := e.TopTier
	if top == "" {
		top = TopTier
	}
	samples, err := runBatch(ctx, o, func(rng RandomSource) (runSample, error) {
		out, err := DrawEngine{TopTier: top, RNG: rng}.Simulate(table, drawCount, pityLimit)
		if err != nil {
			return runSample{}, err
		}
		var s runSample
		for _, d := range out {
			if d.PityTriggered {
				s.Pity++
			}
			if d.Grade == top {
				s.Hits++
				if s.First == 0 {
					s.First = d.Trial
				}
			}
		}
		return s, nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	return summarizeBatch(samples), nil
}

// RunSynthesisBatch repeats a full synthesis run o.Runs times.
func RunSynthesisBatch(ctx context.Context, p SynthesisParams, o BatchOptions) (BatchResult, error) {
	if err := o.validate(); err != nil {
		return BatchResult{}, err
	}
	samples, err := runBatch(ctx, o, func(rng RandomSource) (runSample, error) {
		out, err := SimulateSynthesis(p, rng)
		if err != nil {
			return runSample{}, err
		}
		var s runSample
		for _, a := range out {
			if !a.Succeeded {
				continue
			}
			s.Hits++
			if a.PityTriggered {
				s.Pity++
			}
			if s.First == 0 {
				s.First = a.Trial
			}
		}
		return s, nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	return summarizeBatch(samples), nil
}
