// Package maxlik implements a maximum-likelihood adaptive procedure.
//
// The threshold is the only free parameter: the log-likelihood of every
// candidate threshold on a fixed grid is accumulated trial by trial, and the
// next stimulus is placed where the function at the most likely threshold
// reaches the target proportion correct.
package maxlik

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/psychometric"
	"github.com/cwbudde/algo-vecmath"
)

var ErrInvalidConfig = errors.New("maxlik: invalid configuration")

// logEpsilon keeps the log-likelihood finite at probabilities of 0 or 1.
const logEpsilon = 1e-12

// Config defines a maximum-likelihood track.
type Config struct {
	Family psychometric.Family `yaml:"family"`
	// Beta, Gamma and Lambda are fixed; only the threshold is estimated.
	Beta   float64 `yaml:"beta"`
	Gamma  float64 `yaml:"gamma"`
	Lambda float64 `yaml:"lambda"`

	// AlphaLimits and AlphaStep define the candidate threshold grid.
	AlphaLimits [2]float64 `yaml:"alphaLimits"`
	AlphaStep   float64    `yaml:"alphaStep"`

	// TargetP is the proportion correct at which stimuli are placed.
	TargetP    float64    `yaml:"targetP"`
	StartLevel float64    `yaml:"startLevel"`
	StimLimits [2]float64 `yaml:"stimLimits"`
}

// DefaultConfig tracks 75% correct of a two-alternative logistic function.
func DefaultConfig() Config {
	return Config{
		Family:      psychometric.Logistic,
		Beta:        2,
		Gamma:       0.5,
		Lambda:      0.01,
		AlphaLimits: [2]float64{-20, 20},
		AlphaStep:   0.25,
		TargetP:     0.75,
		StartLevel:  10,
		StimLimits:  [2]float64{-30, 30},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	p := psychometric.Params{Alpha: c.AlphaLimits[0], Beta: c.Beta, Gamma: c.Gamma, Lambda: c.Lambda}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := psychometric.ParseFamily(c.Family.String()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !(c.TargetP > c.Gamma && c.TargetP < 1-c.Lambda) {
		return fmt.Errorf("%w: target %v outside (%v, %v)", ErrInvalidConfig, c.TargetP, c.Gamma, 1-c.Lambda)
	}

	lo, hi := c.AlphaLimits[0], c.AlphaLimits[1]
	if !(lo <= hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return fmt.Errorf("%w: threshold limits %v", ErrInvalidConfig, c.AlphaLimits)
	}

	if lo < hi && !(c.AlphaStep > 0) {
		return fmt.Errorf("%w: threshold step must be positive: %v", ErrInvalidConfig, c.AlphaStep)
	}

	if c.Family == psychometric.Weibull && lo <= 0 {
		return fmt.Errorf("%w: weibull threshold grid must be positive", ErrInvalidConfig)
	}

	if !(c.StimLimits[0] <= c.StartLevel && c.StartLevel <= c.StimLimits[1]) {
		return fmt.Errorf("%w: start level %v outside %v", ErrInvalidConfig, c.StartLevel, c.StimLimits)
	}

	return nil
}

func (c Config) params(alpha float64) psychometric.Params {
	return psychometric.Params{Alpha: alpha, Beta: c.Beta, Gamma: c.Gamma, Lambda: c.Lambda}
}

// Controller runs one maximum-likelihood track. It is not safe for
// concurrent use.
type Controller struct {
	cfg    Config
	alphas []float64
	ll     []float64
	scr    []float64

	best   int
	level  float64
	levels []float64
}

// New creates a controller whose first stimulus is cfg.StartLevel.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	alphas, err := psi.Axis{Limits: cfg.AlphaLimits, Step: cfg.AlphaStep}.Values()
	if err != nil {
		return nil, fmt.Errorf("%w: threshold grid: %w", ErrInvalidConfig, err)
	}

	n := len(alphas)

	return &Controller{
		cfg:    cfg,
		alphas: alphas,
		ll:     make([]float64, n),
		scr:    make([]float64, n),
		best:   n / 2,
		level:  cfg.StartLevel,
	}, nil
}

// Level returns the stimulus to present next.
func (c *Controller) Level() float64 {
	return c.level
}

// Trials returns the number of responses recorded.
func (c *Controller) Trials() int {
	return len(c.levels)
}

// Levels returns the stimulus presented on each trial.
func (c *Controller) Levels() []float64 {
	return slices.Clone(c.levels)
}

// Threshold returns the maximum-likelihood threshold. Before the first
// response it is the grid midpoint.
func (c *Controller) Threshold() float64 {
	return c.alphas[c.best]
}

// LogLikelihood returns the accumulated log-likelihood of every candidate
// threshold, aligned with Alphas.
func (c *Controller) LogLikelihood() []float64 {
	return slices.Clone(c.ll)
}

// Alphas returns the candidate threshold grid.
func (c *Controller) Alphas() []float64 {
	return slices.Clone(c.alphas)
}

// Update records the response to the current level and returns the next.
func (c *Controller) Update(r psychometric.Response) float64 {
	return c.UpdateAt(c.level, r)
}

// UpdateAt records the response to stimulus x and returns the next level.
func (c *Controller) UpdateAt(x float64, r psychometric.Response) float64 {
	r.MustValid("maxlik")

	for i, a := range c.alphas {
		p := psychometric.Psi(x, c.cfg.params(a), c.cfg.Family)
		if r == psychometric.Incorrect {
			p = 1 - p
		}

		c.scr[i] = math.Log(p + logEpsilon)
	}

	vecmath.AddBlockInPlace(c.ll, c.scr)
	c.levels = append(c.levels, x)

	c.best = 0
	for i, v := range c.ll {
		if v > c.ll[c.best] {
			c.best = i
		}
	}

	c.level = c.nextLevel()

	return c.level
}

func (c *Controller) nextLevel() float64 {
	lo, hi := c.cfg.StimLimits[0], c.cfg.StimLimits[1]

	x, err := psychometric.InvPsi(c.cfg.TargetP, c.cfg.params(c.Threshold()), c.cfg.Family)
	if err != nil {
		// Validate guarantees the target is reachable.
		panic(fmt.Sprintf("maxlik: %v", err))
	}

	return min(max(x, lo), hi)
}
