package pest

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-psych/adaptive/staircase"
	"github.com/cwbudde/algo-psych/psychometric"
)

var (
	ErrInvalidConfig = errors.New("pest: invalid configuration")
	ErrFinished      = errors.New("pest: track already finished")
)

// Config defines a PEST track.
type Config struct {
	StartLevel  float64 `yaml:"startLevel"`
	InitialStep float64 `yaml:"initialStep"`
	// MinStep ends the track once the step size falls below it.
	MinStep float64 `yaml:"minStep"`
	// MaxStep caps doubled steps; zero means no cap.
	MaxStep float64 `yaml:"maxStep"`

	// TargetP is the proportion correct the track converges on.
	TargetP float64 `yaml:"targetP"`
	// W is the deviation limit of the sequential test.
	W float64 `yaml:"w"`

	// CorrectDirection is the way the level moves when too many responses
	// are correct.
	CorrectDirection staircase.Direction `yaml:"correctDirection"`

	MinLevel float64 `yaml:"minLevel"`
	MaxLevel float64 `yaml:"maxLevel"`
}

// DefaultConfig tracks 75% correct from level 50 with W = 1.
func DefaultConfig() Config {
	return Config{
		StartLevel:       50,
		InitialStep:      8,
		MinStep:          1,
		TargetP:          0.75,
		W:                1,
		CorrectDirection: staircase.Down,
		MinLevel:         math.Inf(-1),
		MaxLevel:         math.Inf(1),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.StartLevel) || math.IsInf(c.StartLevel, 0):
		return fmt.Errorf("%w: start level must be finite: %v", ErrInvalidConfig, c.StartLevel)
	case !(c.InitialStep > 0) || math.IsInf(c.InitialStep, 0):
		return fmt.Errorf("%w: initial step must be positive: %v", ErrInvalidConfig, c.InitialStep)
	case !(c.MinStep > 0) || c.MinStep > c.InitialStep:
		return fmt.Errorf("%w: min step must be in (0, initial step]: %v", ErrInvalidConfig, c.MinStep)
	case c.MaxStep != 0 && c.MaxStep < c.InitialStep:
		return fmt.Errorf("%w: max step must be 0 or >= initial step: %v", ErrInvalidConfig, c.MaxStep)
	case !(c.TargetP > 0 && c.TargetP < 1):
		return fmt.Errorf("%w: target proportion must be in (0, 1): %v", ErrInvalidConfig, c.TargetP)
	case !(c.W > 0):
		return fmt.Errorf("%w: deviation limit must be positive: %v", ErrInvalidConfig, c.W)
	case c.CorrectDirection != staircase.Down && c.CorrectDirection != staircase.Up:
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidConfig, int(c.CorrectDirection))
	case !(c.MinLevel <= c.StartLevel && c.StartLevel <= c.MaxLevel):
		return fmt.Errorf("%w: start level %v outside [%v, %v]", ErrInvalidConfig, c.StartLevel, c.MinLevel, c.MaxLevel)
	}

	return nil
}

// Controller runs one PEST track. It is not safe for concurrent use.
type Controller struct {
	cfg   Config
	level float64
	step  float64

	atLevel, correctAtLevel int

	moved       bool
	lastDir     staircase.Direction
	run         int
	lastDoubled bool
	// doubledIntoReversal records whether the step before the last reversal
	// was a doubling.
	doubledIntoReversal bool

	reversals int
	done      bool
	levels    []float64
}

// New creates a controller for cfg.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Controller{cfg: cfg, level: cfg.StartLevel, step: cfg.InitialStep}, nil
}

// Level returns the level to present next.
func (c *Controller) Level() float64 {
	return c.level
}

// StepSize returns the magnitude of the next move.
func (c *Controller) StepSize() float64 {
	return c.step
}

// Done reports whether the step has fallen below MinStep.
func (c *Controller) Done() bool {
	return c.done
}

// Reversals returns the number of direction changes so far.
func (c *Controller) Reversals() int {
	return c.reversals
}

// Trials returns the number of responses recorded.
func (c *Controller) Trials() int {
	return len(c.levels)
}

// Levels returns the level presented on each trial.
func (c *Controller) Levels() []float64 {
	return slices.Clone(c.levels)
}

// Result returns the threshold estimate: the level the next trial would be
// presented at.
func (c *Controller) Result() float64 {
	return c.level
}

// Update records a response at the current level and returns the next level.
func (c *Controller) Update(r psychometric.Response) (float64, error) {
	r.MustValid("pest")

	if c.done {
		return c.level, fmt.Errorf("%w after %d trials", ErrFinished, len(c.levels))
	}

	c.levels = append(c.levels, c.level)
	c.atLevel++
	if r == psychometric.Correct {
		c.correctAtLevel++
	}

	expected := c.cfg.TargetP * float64(c.atLevel)
	observed := float64(c.correctAtLevel)

	switch {
	case observed-expected > c.cfg.W:
		c.move(c.cfg.CorrectDirection)
	case expected-observed > c.cfg.W:
		c.move(c.cfg.CorrectDirection.Opposite())
	}

	return c.level, nil
}

func (c *Controller) move(dir staircase.Direction) {
	c.atLevel, c.correctAtLevel = 0, 0
	doubled := false

	switch {
	case !c.moved:
		c.run = 1
	case dir != c.lastDir:
		c.doubledIntoReversal = c.lastDoubled
		c.step /= 2
		c.run = 1
		c.reversals++
	default:
		c.run++
		if c.run >= 4 || (c.run == 3 && !c.doubledIntoReversal) {
			c.step *= 2
			doubled = true
		}
	}

	if c.cfg.MaxStep > 0 && c.step > c.cfg.MaxStep {
		c.step = c.cfg.MaxStep
	}

	if c.step < c.cfg.MinStep {
		c.done = true
		return
	}

	c.moved, c.lastDir, c.lastDoubled = true, dir, doubled

	delta := c.step
	if dir == staircase.Down {
		delta = -delta
	}

	c.level = min(max(c.level+delta, c.cfg.MinLevel), c.cfg.MaxLevel)
}
