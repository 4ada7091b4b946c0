package simulator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/profile"
)

const defaultYAML = `
version: "1"
table:
  - {grade: S, label: Crown, weight: 5}
  - {grade: A, label: Shield, weight: 95}
draw:
  count: 100
  pity_limit: 20
cost:
  bundle_size: 11
  unit_cost: 27500
  currency: KRW
synthesis:
  grade_order: [C, B, A, S, R, SR]
  rates: {C: 25, B: 21, A: 18, S: 16, R: 15}
  pity: 5
  count: 20
  start_grade: A
`

const noTopTierYAML = `
table:
  - {grade: A, label: Shield, weight: 100}
draw:
  count: 30
  pity_limit: 10
`

func newTestService(t *testing.T, maxTrials int) (*Service, *logtest.Hook) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{"default": defaultYAML, "plain": noTopTierYAML} {
		path := filepath.Join(dir, "profiles", name+".yaml")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	logger, hook := logtest.NewNullLogger()
	log := logrus.NewEntry(logger)
	svc := NewService(profile.NewLoader(dir, log), Options{MaxTrials: maxTrials, BatchWorkers: 3, Logger: log})
	return svc, hook
}

func TestRunDraws_SeededIsReproducible(t *testing.T) {
	svc, _ := newTestService(t, 0)
	seed := uint64(42)

	a, err := svc.RunDraws(context.Background(), Request{Seed: &seed})
	require.NoError(t, err)
	b, err := svc.RunDraws(context.Background(), Request{Seed: &seed})
	require.NoError(t, err)

	assert.Equal(t, a.Outcomes, b.Outcomes)
	assert.Equal(t, "default", a.Profile)
	assert.Equal(t, "1", a.Version)
	assert.Len(t, a.Outcomes, 100)
	assert.False(t, a.DegradedPity)
	assert.Equal(t, 100, a.Summary.Draws)
	assert.Equal(t, "275000", a.Summary.Cost.Total.String())
}

func TestRunDraws_PityBoundsTopTierGap(t *testing.T) {
	svc, _ := newTestService(t, 0)
	count := 500
	rep, err := svc.RunDraws(context.Background(), Request{Overrides: profile.Overrides{DrawCount: &count}})
	require.NoError(t, err)

	misses := 0
	for _, d := range rep.Outcomes {
		if d.Grade == gacha.TopTier {
			misses = 0
			continue
		}
		misses++
		require.Less(t, misses, rep.PityLimit+1)
	}
}

func TestRunDraws_DegradedPityIsFlaggedAndLogged(t *testing.T) {
	svc, hook := newTestService(t, 0)
	rep, err := svc.RunDraws(context.Background(), Request{Profile: "plain"})
	require.NoError(t, err)

	assert.True(t, rep.DegradedPity)
	assert.Len(t, rep.Outcomes, 30)
	assert.Zero(t, rep.Summary.TopTierCount)
	assert.Nil(t, rep.Summary.CostPerTopTier)
	// the streak never resets, so pity stays due from trial 11 on
	assert.Equal(t, 20, rep.Summary.PityCount)

	warn, ok := lo.Find(hook.AllEntries(), func(e *logrus.Entry) bool { return e.Level == logrus.WarnLevel })
	require.True(t, ok)
	assert.Equal(t, "plain", warn.Data["profile"])
}

func TestRunDraws_Errors(t *testing.T) {
	svc, _ := newTestService(t, 50)

	_, err := svc.RunDraws(context.Background(), Request{Profile: "missing"})
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	_, err = svc.RunDraws(context.Background(), Request{})
	assert.ErrorIs(t, err, gacha.ErrInvalidConfiguration, "100 draws exceed the limit of 50")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.RunDraws(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSynthesis_MissingRateOnlySucceedsOnPity(t *testing.T) {
	svc, hook := newTestService(t, 0)
	start, attempts := "SR", 12
	rep, err := svc.RunSynthesis(context.Background(), Request{
		Overrides: profile.Overrides{StartGrade: &start, Attempts: &attempts},
	})
	require.NoError(t, err)

	assert.True(t, rep.DegradedPity)
	assert.Equal(t, "SR", rep.Target, "top grade upgrades to itself")
	assert.Equal(t, 2, rep.Summary.Successes)
	assert.Equal(t, 2, rep.Summary.PitySuccesses)
	assert.True(t, rep.Outcomes[5].Succeeded)
	assert.True(t, rep.Outcomes[11].Succeeded)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRunSynthesis_Defaults(t *testing.T) {
	svc, _ := newTestService(t, 0)
	seed := uint64(7)
	rep, err := svc.RunSynthesis(context.Background(), Request{Seed: &seed})
	require.NoError(t, err)

	assert.False(t, rep.DegradedPity)
	assert.Equal(t, "A", rep.Params.StartGrade)
	assert.Equal(t, "S", rep.Target)
	assert.Len(t, rep.Outcomes, 20)
	assert.Equal(t, rep.Summary.Attempts, rep.Summary.Successes+rep.Summary.Failures)
}

func TestBatches(t *testing.T) {
	svc, _ := newTestService(t, 10_000)
	seed := uint64(1)
	req := BatchRequest{Request: Request{Seed: &seed}, Runs: 40}

	a, err := svc.RunDrawBatch(context.Background(), req)
	require.NoError(t, err)
	b, err := svc.RunDrawBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, KindDraws, a.Kind)
	assert.False(t, a.DegradedPity)
	assert.Equal(t, 40, a.Result.Runs)
	assert.Equal(t, 100, a.Trials)
	assert.Equal(t, a.Result.Hits.Mean, b.Result.Hits.Mean)
	// 100 draws with pity 20 guarantee at least four top-tier results
	assert.GreaterOrEqual(t, a.Result.Hits.P50, 4.0)

	s, err := svc.RunSynthesisBatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, KindSynthesis, s.Kind)
	assert.Equal(t, uint64(1), s.Seed)
	assert.Equal(t, 20, s.Trials)

	req.Runs = 200
	_, err = svc.RunDrawBatch(context.Background(), req)
	assert.ErrorIs(t, err, gacha.ErrInvalidConfiguration)

	req.Runs = 0
	_, err = svc.RunSynthesisBatch(context.Background(), req)
	assert.ErrorIs(t, err, gacha.ErrInvalidConfiguration)
}

func TestBatch_RandomSeedIsReported(t *testing.T) {
	svc, _ := newTestService(t, 0)
	rep, err := svc.RunDrawBatch(context.Background(), BatchRequest{Runs: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Result.Runs)
}

func TestRunDrawBatch_DegradedPityIsFlaggedAndLogged(t *testing.T) {
	svc, hook := newTestService(t, 0)
	seed := uint64(9)
	rep, err := svc.RunDrawBatch(context.Background(), BatchRequest{Request: Request{Profile: "plain", Seed: &seed}, Runs: 5})
	require.NoError(t, err)

	assert.True(t, rep.DegradedPity)
	assert.Equal(t, 5, rep.Result.Misses)

	warn, ok := lo.Find(hook.AllEntries(), func(e *logrus.Entry) bool { return e.Level == logrus.WarnLevel })
	require.True(t, ok)
	assert.Equal(t, "plain", warn.Data["profile"])
	assert.Equal(t, 5, warn.Data["runs"])
}

func TestRunSynthesisBatch_DegradedPityIsFlagged(t *testing.T) {
	svc, _ := newTestService(t, 0)
	seed, start := uint64(2), "SR"
	req := BatchRequest{Request: Request{Seed: &seed, Overrides: profile.Overrides{StartGrade: &start}}, Runs: 3}
	rep, err := svc.RunSynthesisBatch(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, rep.DegradedPity)
}
