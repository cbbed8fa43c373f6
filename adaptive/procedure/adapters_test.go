package procedure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/adaptive/staircase"
	"github.com/cwbudde/algo-psych/psychometric"
)

func mustProcedure(t *testing.T, cfg Config) Procedure {
	t.Helper()

	p, err := New(cfg, Env{})
	require.NoError(t, err)

	return p
}

func oneUpOneDown() Config {
	cfg := DefaultConfig()
	cfg.Kind = KindStaircase
	cfg.MaxTrials = 0
	cfg.Staircase.NumberCorrectNeeded = 1
	cfg.Staircase.InitialTurnpoints = 0
	cfg.Staircase.TotalTurnpoints = 4

	return cfg
}

func TestStaircaseProcedureFinishes(t *testing.T) {
	p := mustProcedure(t, oneUpOneDown())

	resp := psychometric.Correct
	for !p.Done() {
		x := p.Stimulus()

		step, err := p.Update(resp)
		require.NoError(t, err)
		assert.NotEqual(t, x, step.Next, "every response moves a 1-up/1-down track")

		resp = 1 - resp
	}

	_, err := p.Update(psychometric.Correct)
	require.ErrorIs(t, err, ErrFinished)
	require.ErrorIs(t, err, staircase.ErrFinished)

	est := p.Estimate()
	assert.Equal(t, KindStaircase, est.Kind)
	assert.False(t, math.IsNaN(est.Threshold))
	assert.Nil(t, est.Params)
}

func TestStaircaseThresholdUnavailableEarly(t *testing.T) {
	p := mustProcedure(t, oneUpOneDown())

	est := p.Estimate()
	assert.True(t, math.IsNaN(est.Threshold))
	assert.True(t, math.IsNaN(est.SD))
}

func TestInterleavedProcedureReportsTracks(t *testing.T) {
	cfg, err := Load("testdata/interleaved.yaml")
	require.NoError(t, err)

	p := mustProcedure(t, cfg)
	ip, ok := p.(*InterleavedProcedure)
	require.True(t, ok)

	// Alternating per track reverses every track on each of its trials.
	last := map[int]psychometric.Response{0: psychometric.Incorrect, 1: psychometric.Incorrect}
	seen := map[int]bool{}
	for !p.Done() {
		track := ip.Track()
		seen[track] = true
		last[track] = 1 - last[track]

		step, err := p.Update(last[track])
		require.NoError(t, err)

		if !step.Done {
			assert.Equal(t, ip.Track(), step.Track)
		}
	}

	assert.Equal(t, map[int]bool{0: true, 1: true}, seen)
	assert.Equal(t, -1, ip.Track())
	assert.True(t, math.IsNaN(p.Stimulus()))

	_, err = p.Update(psychometric.Correct)
	require.ErrorIs(t, err, ErrFinished)

	est := p.Estimate()
	assert.True(t, math.IsNaN(est.Threshold))
	require.Len(t, est.Tracks, 2)

	for i, s := range est.Tracks {
		assert.True(t, s.Available(), "track %d", i)
	}
}

func TestPESTProcedure(t *testing.T) {
	cfg, err := Load("testdata/pest.yaml")
	require.NoError(t, err)

	p := mustProcedure(t, cfg)
	assert.Equal(t, 40.0, p.Stimulus())

	// Four hits match the 0.75 target within W; the fifth moves down.
	var step Step
	for range 5 {
		step, err = p.Update(psychometric.Correct)
		require.NoError(t, err)
	}

	assert.Equal(t, 36.0, step.Next)
	assert.False(t, step.Done)

	est := p.Estimate()
	assert.Equal(t, KindPEST, est.Kind)
	assert.Equal(t, 5, est.Trials)
}

func TestBudgetEndsMaxLik(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kind = KindMaxLik
	cfg.MaxTrials = 5

	p := mustProcedure(t, cfg)
	b, ok := p.(*Budget)
	require.True(t, ok)

	for n := 1; n <= 5; n++ {
		require.False(t, p.Done())

		step, err := p.Update(psychometric.Incorrect)
		require.NoError(t, err)
		assert.Equal(t, n == 5, step.Done)
		assert.Equal(t, 5-n, b.Remaining())
	}

	assert.True(t, p.Done())

	_, err := p.Update(psychometric.Correct)
	require.ErrorIs(t, err, ErrFinished)

	est := p.Estimate()
	assert.Equal(t, 5, est.Trials)
	require.NotNil(t, est.Params)
	assert.Equal(t, cfg.MaxLik.Beta, est.Params.Beta)
	assert.Equal(t, est.Threshold, est.Params.Alpha)

	_, ok = SnapshotOf(p)
	assert.False(t, ok)
}

func TestWithBudgetZeroIsUnbounded(t *testing.T) {
	p := &MaxLikProcedure{}
	assert.Same(t, p, WithBudget(p, 0))
}

func TestSnapshotOfLooksThroughBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PSI.Stimulus = psi.Axis{Limits: [2]float64{-4, 4}, Step: 1}
	cfg.PSI.Alpha = psi.Axis{Limits: [2]float64{-4, 4}, Step: 1}
	cfg.MaxTrials = 3

	p := mustProcedure(t, cfg)

	_, err := p.Update(psychometric.Correct)
	require.NoError(t, err)

	snap, ok := SnapshotOf(p)
	require.True(t, ok)
	assert.Equal(t, 1, snap.Trials)

	est := p.Estimate()
	assert.Equal(t, KindPSI, est.Kind)
	require.NotNil(t, est.Params)
	assert.Equal(t, est.Params.Alpha, est.Threshold)
}

func TestHybridStaircaseReportsPercentCorrect(t *testing.T) {
	cfg := oneUpOneDown()
	cfg.Staircase.Rule = staircase.RuleHybrid
	cfg.Staircase.StartLevel = 50
	cfg.Staircase.StepSize1 = 4
	cfg.Staircase.StepSize2 = 4
	cfg.Staircase.LimitLevel = 58
	cfg.Staircase.TrialsAtLimit = 4
	cfg.Staircase.TotalTurnpoints = 20

	p := mustProcedure(t, cfg)
	assert.True(t, math.IsNaN(p.Estimate().PercentCorrect))

	// Two misses climb to the limit; three of four hits are collected there.
	for _, r := range []psychometric.Response{0, 0, 1, 0, 1, 1} {
		_, err := p.Update(r)
		require.NoError(t, err)
	}

	require.True(t, p.Done())

	est := p.Estimate()
	assert.Equal(t, 75.0, est.PercentCorrect)
	assert.Equal(t, 6, est.Trials)
}

func TestInterleavedReportsTrackPercentCorrect(t *testing.T) {
	cfg, err := Load("testdata/interleaved.yaml")
	require.NoError(t, err)

	p := mustProcedure(t, cfg)

	est := p.Estimate()
	require.Len(t, est.TrackPercentCorrect, 2)
	assert.True(t, math.IsNaN(est.TrackPercentCorrect[0]))
	assert.True(t, math.IsNaN(est.PercentCorrect))
}
