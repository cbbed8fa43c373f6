package procedure

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-psych/adaptive/maxlik"
	"github.com/cwbudde/algo-psych/adaptive/pest"
	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/adaptive/staircase"
)

// DefaultRegistry returns a Registry with every built-in procedure kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(KindPSI, newPSI)
	r.MustRegister(KindPSIGuessRate, newPSI)
	r.MustRegister(KindStaircase, func(cfg Config, _ Env) (Procedure, error) {
		c, err := staircase.New(cfg.Staircase)
		if err != nil {
			return nil, err
		}

		return NewStaircaseProcedure(c, cfg.Average), nil
	})
	r.MustRegister(KindInterleaved, func(cfg Config, _ Env) (Procedure, error) {
		s, err := staircase.NewScheduler(cfg.Tracks, cfg.Scheduler)
		if err != nil {
			return nil, err
		}

		return NewInterleavedProcedure(s, cfg.Average), nil
	})
	r.MustRegister(KindPEST, func(cfg Config, _ Env) (Procedure, error) {
		c, err := pest.New(cfg.PEST)
		if err != nil {
			return nil, err
		}

		return NewPESTProcedure(c), nil
	})
	r.MustRegister(KindMaxLik, func(cfg Config, _ Env) (Procedure, error) {
		c, err := maxlik.New(cfg.MaxLik)
		if err != nil {
			return nil, err
		}

		return NewMaxLikProcedure(c, cfg.MaxLik), nil
	})

	return r
}

// newPSI builds a PSI estimator, resuming from the posterior stored under
// cfg.Label when env has a store holding one.
func newPSI(cfg Config, env Env) (Procedure, error) {
	pc := cfg.psiConfig()

	if env.Store != nil && cfg.Label != "" {
		snap, err := env.Store.Load(cfg.Label)
		switch {
		case err == nil:
			pc.ResumeFrom = &snap
		case !errors.Is(err, psi.ErrNoSnapshot):
			return nil, fmt.Errorf("resume %q: %w", cfg.Label, err)
		}
	}

	est, err := psi.New(pc)
	if err != nil {
		return nil, err
	}

	return NewPSIProcedure(cfg.Kind, est), nil
}
