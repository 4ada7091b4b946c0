// Package simulator resolves profiles, runs the engines and aggregates the results.
// It is the single entry point shared by the HTTP and gRPC transports and the CLI.
package simulator

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/stats"
)

// Options tunes a Service.
type Options struct {
	MaxTrials    int // upper bound on trials per request, batches included; <= 0 means unlimited
	BatchWorkers int // parallel runs per batch; <= 0 means 1
	Logger       *logrus.Entry
}

// Service runs simulations against resolved profiles. Every call is an independent run.
type Service struct {
	profiles  profile.Resolver
	log       *logrus.Entry
	maxTrials int
	workers   int
}

func NewService(r profile.Resolver, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logrus.WithField("module", "simulator")
	}
	return &Service{
		profiles:  r,
		log:       log,
		maxTrials: opts.MaxTrials,
		workers:   opts.BatchWorkers,
	}
}

// Request selects a profile, optional overrides, and an optional seed.
// A nil Seed uses the crypto-backed source for single runs and a random base seed for batches.
type Request struct {
	Profile   string
	Overrides profile.Overrides
	Seed      *uint64
}

// BatchRequest repeats a whole run Runs times.
type BatchRequest struct {
	Request
	Runs int
}

// DrawReport is the result of one draw run.
type DrawReport struct {
	Profile      string              `json:"profile"`
	Version      string              `json:"version,omitempty"`
	Seed         *uint64             `json:"seed,omitempty"`
	PityLimit    int                 `json:"pity_limit"`
	DegradedPity bool                `json:"degraded_pity"`
	Outcomes     []gacha.DrawOutcome `json:"outcomes"`
	Summary      stats.DrawSummary   `json:"summary"`
}

// SynthesisReport is the result of one synthesis run.
type SynthesisReport struct {
	Profile      string                   `json:"profile"`
	Version      string                   `json:"version,omitempty"`
	Seed         *uint64                  `json:"seed,omitempty"`
	Params       gacha.SynthesisParams    `json:"params"`
	Target       string                   `json:"target"`
	DegradedPity bool                     `json:"degraded_pity"`
	Outcomes     []gacha.SynthesisOutcome `json:"outcomes"`
	Summary      stats.SynthesisSummary   `json:"summary"`
}

// BatchReport is the result of a Monte Carlo batch.
type BatchReport struct {
	Profile      string            `json:"profile"`
	Kind         string            `json:"kind"`
	Seed         uint64            `json:"seed"`
	Trials       int               `json:"trials"` // trials per run
	DegradedPity bool              `json:"degraded_pity"`
	Result       gacha.BatchResult `json:"result"`
}

// Batch kinds.
const (
	KindDraws     = "draws"
	KindSynthesis = "synthesis"
)

// Profile resolves a profile without running anything.
func (s *Service) Profile(name string) (profile.Profile, error) {
	_, p, err := s.profiles.Resolve(name, profile.Overrides{})
	return p, err
}

// RunDraws runs one draw simulation.
func (s *Service) RunDraws(ctx context.Context, req Request) (DrawReport, error) {
	if err := ctx.Err(); err != nil {
		return DrawReport{}, err
	}
	p, err := s.resolve(req)
	if err != nil {
		return DrawReport{}, err
	}
	if err := s.checkTrials(p.DrawCount, 1); err != nil {
		return DrawReport{}, err
	}
	log := s.log.WithFields(logrus.Fields{"profile": p.Name, "draws": p.DrawCount, "pity_limit": p.PityLimit})
	degraded := drawPityDegraded(log, p)

	engine := gacha.DrawEngine{TopTier: p.TopTier, RNG: rngFor(req.Seed)}
	out, err := engine.Simulate(p.Table, p.DrawCount, p.PityLimit)
	if err != nil {
		return DrawReport{}, fmt.Errorf("simulate draws: %w", err)
	}
	sum, err := stats.SummarizeDraws(out, p.TopTier, p.Pricing)
	if err != nil {
		return DrawReport{}, fmt.Errorf("summarize draws: %w", err)
	}
	log.WithFields(logrus.Fields{"top_tier_count": sum.TopTierCount, "pity_count": sum.PityCount}).Debug("draw run finished")

	return DrawReport{
		Profile:      p.Name,
		Version:      p.Version,
		Seed:         req.Seed,
		PityLimit:    p.PityLimit,
		DegradedPity: degraded,
		Outcomes:     out,
		Summary:      sum,
	}, nil
}

// RunSynthesis runs one synthesis simulation.
func (s *Service) RunSynthesis(ctx context.Context, req Request) (SynthesisReport, error) {
	if err := ctx.Err(); err != nil {
		return SynthesisReport{}, err
	}
	p, err := s.resolve(req)
	if err != nil {
		return SynthesisReport{}, err
	}
	params := p.Synthesis
	if err := s.checkTrials(params.Attempts, 1); err != nil {
		return SynthesisReport{}, err
	}
	log := s.log.WithFields(logrus.Fields{"profile": p.Name, "start_grade": params.StartGrade, "attempts": params.Attempts})

	degraded := synthesisPityDegraded(log, params)

	out, err := gacha.SimulateSynthesis(params, rngFor(req.Seed))
	if err != nil {
		return SynthesisReport{}, fmt.Errorf("simulate synthesis: %w", err)
	}
	sum := stats.SummarizeSynthesis(out)
	log.WithFields(logrus.Fields{"successes": sum.Successes, "pity_successes": sum.PitySuccesses}).Debug("synthesis run finished")

	return SynthesisReport{
		Profile:      p.Name,
		Version:      p.Version,
		Seed:         req.Seed,
		Params:       params,
		Target:       params.Order.Next(params.StartGrade),
		DegradedPity: degraded,
		Outcomes:     out,
		Summary:      sum,
	}, nil
}

// RunDrawBatch repeats a draw run req.Runs times.
func (s *Service) RunDrawBatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	p, err := s.resolve(req.Request)
	if err != nil {
		return BatchReport{}, err
	}
	if err := s.checkTrials(p.DrawCount, req.Runs); err != nil {
		return BatchReport{}, err
	}
	opts, err := s.batchOptions(req)
	if err != nil {
		return BatchReport{}, err
	}
	log := s.log.WithFields(logrus.Fields{"profile": p.Name, "runs": req.Runs})
	res, err := gacha.RunDrawBatch(ctx, gacha.DrawEngine{TopTier: p.TopTier}, p.Table, p.DrawCount, p.PityLimit, opts)
	if err != nil {
		return BatchReport{}, fmt.Errorf("draw batch: %w", err)
	}
	degraded := drawPityDegraded(log, p)
	log.WithField("mean_hits", res.Hits.Mean).Info("draw batch finished")
	return BatchReport{Profile: p.Name, Kind: KindDraws, Seed: opts.Seed, Trials: p.DrawCount, DegradedPity: degraded, Result: res}, nil
}

// RunSynthesisBatch repeats a synthesis run req.Runs times.
func (s *Service) RunSynthesisBatch(ctx context.Context, req BatchRequest) (BatchReport, error) {
	p, err := s.resolve(req.Request)
	if err != nil {
		return BatchReport{}, err
	}
	if err := s.checkTrials(p.Synthesis.Attempts, req.Runs); err != nil {
		return BatchReport{}, err
	}
	opts, err := s.batchOptions(req)
	if err != nil {
		return BatchReport{}, err
	}
	log := s.log.WithFields(logrus.Fields{"profile": p.Name, "runs": req.Runs, "start_grade": p.Synthesis.StartGrade})
	res, err := gacha.RunSynthesisBatch(ctx, p.Synthesis, opts)
	if err != nil {
		return BatchReport{}, fmt.Errorf("synthesis batch: %w", err)
	}
	degraded := synthesisPityDegraded(log, p.Synthesis)
	log.WithField("mean_successes", res.Hits.Mean).Info("synthesis batch finished")
	return BatchReport{Profile: p.Name, Kind: KindSynthesis, Seed: opts.Seed, Trials: p.Synthesis.Attempts, DegradedPity: degraded, Result: res}, nil
}

func (s *Service) resolve(req Request) (profile.Profile, error) {
	_, p, err := s.profiles.Resolve(req.Profile, req.Overrides)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("resolve profile: %w", err)
	}
	return p, nil
}

// drawPityDegraded reports, and warns about, a table that has no top-tier entry for pity to force.
func drawPityDegraded(log *logrus.Entry, p profile.Profile) bool {
	if p.Table.Has(p.TopTier) {
		return false
	}
	if len(p.Table) > 0 {
		log.WithField("top_tier", p.TopTier).Warn("table has no top-tier entry, pity degrades to weighted draws")
	}
	return true
}

func synthesisPityDegraded(log *logrus.Entry, params gacha.SynthesisParams) bool {
	if _, ok := params.Rates[params.StartGrade]; ok {
		return false
	}
	log.Warn("no synthesis rate for start grade, only pity can succeed")
	return true
}

// checkTrials bounds the work a single request may ask for.
func (s *Service) checkTrials(perRun, runs int) error {
	if s.maxTrials <= 0 || perRun <= 0 || runs <= 0 {
		return nil
	}
	if perRun > s.maxTrials/runs {
		return fmt.Errorf("%w: %d runs x %d trials exceeds the limit of %d", gacha.ErrInvalidConfiguration, runs, perRun, s.maxTrials)
	}
	return nil
}

func (s *Service) batchOptions(req BatchRequest) (gacha.BatchOptions, error) {
	seed := uint64(0)
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		var err error
		if seed, err = newSeed(); err != nil {
			return gacha.BatchOptions{}, err
		}
	}
	return gacha.BatchOptions{Runs: req.Runs, Seed: seed, Workers: s.workers}, nil
}

func rngFor(seed *uint64) gacha.RandomSource {
	if seed == nil {
		return gacha.DefaultRNG()
	}
	return gacha.NewSeededRNG(*seed)
}

// newSeed generates a batch base seed using crypto/rand.
func newSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
