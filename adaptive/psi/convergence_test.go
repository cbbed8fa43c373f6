package psi_test

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/internal/testutil"
	"github.com/cwbudde/algo-psych/psychometric"
)

func run(t *testing.T, cfg psi.Config, truth psychometric.Params, trials int, seed int64) psi.Estimate {
	t.Helper()

	e, err := psi.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l := testutil.NewListener(truth, cfg.Family, seed)
	for range trials {
		e.Update(l.Respond(e.Next()))
	}

	testutil.RequireDistribution(t, e.Posterior(), 1e-9)

	return e.Estimate()
}

func TestConvergenceTwoAlternative(t *testing.T) {
	if testing.Short() {
		t.Skip("simulation")
	}

	cfg := psi.DefaultConfig()
	cfg.Stimulus = psi.Axis{Limits: [2]float64{-6, 6}, Step: 0.5}
	cfg.Alpha = psi.Axis{Limits: [2]float64{-4, 4}, Step: 0.25}
	cfg.Beta = psi.Axis{Limits: [2]float64{0.25, 4}, Step: math.Ln2 / 4, Spacing: psi.Logarithmic}
	cfg.Lambda = psi.Axis{Limits: [2]float64{0, 0.06}, Step: 0.02}

	truth := psychometric.Params{Alpha: 1, Beta: 1, Gamma: 0.5, Lambda: 0.02}

	// Single runs scatter with an alpha RMSE near 0.3, so each seed gets a
	// loose bound and the seed average a tight one.
	const seeds = 6

	alphaErr, logBeta := 0.0, 0.0
	for seed := int64(1); seed <= seeds; seed++ {
		est := run(t, cfg, truth, 300, seed)

		if math.Abs(est.Alpha-truth.Alpha) > 1.2 {
			t.Errorf("seed %d: alpha = %.3f, want %.3f +- 1.2", seed, est.Alpha, truth.Alpha)
		}

		testutil.RequireNearlyEqual(t, "fixed gamma", est.Gamma, 0.5, 1e-9)

		alphaErr += est.Alpha - truth.Alpha
		logBeta += math.Log(est.Beta)
	}

	if bias := alphaErr / seeds; math.Abs(bias) > 0.35 {
		t.Errorf("mean alpha error = %.3f over %d seeds, want within 0.35", bias, seeds)
	}

	if beta := math.Exp(logBeta / seeds); beta < 0.5 || beta > 2 {
		t.Errorf("geometric mean beta = %.3f over %d seeds, want within [0.5, 2]", beta, seeds)
	}
}

func TestConvergenceGuessRate(t *testing.T) {
	if testing.Short() {
		t.Skip("simulation")
	}

	cfg := psi.DefaultConfig()
	cfg.Variant = psi.VariantGuessRate
	cfg.Stimulus = psi.Axis{Limits: [2]float64{-8, 8}, Step: 0.5}
	cfg.Alpha = psi.Axis{Limits: [2]float64{-4, 4}, Step: 0.5}
	cfg.Beta = psi.Axis{Limits: [2]float64{0.25, 4}, Step: math.Ln2 / 2, Spacing: psi.Logarithmic}
	cfg.Gamma = psi.Axis{Limits: [2]float64{0, 0.3}, Step: 0.05}
	cfg.Lambda = psi.Axis{Limits: [2]float64{0, 0.06}, Step: 0.02}

	truth := psychometric.Params{Alpha: 0, Beta: 1, Gamma: 0.1, Lambda: 0.02}
	est := run(t, cfg, truth, 400, 7)

	if math.Abs(est.Alpha-truth.Alpha) > 0.75 {
		t.Errorf("alpha = %.3f, want %.3f +- 0.75", est.Alpha, truth.Alpha)
	}

	if math.Abs(est.Gamma-truth.Gamma) > 0.1 {
		t.Errorf("gamma = %.3f, want %.3f +- 0.1", est.Gamma, truth.Gamma)
	}
}
