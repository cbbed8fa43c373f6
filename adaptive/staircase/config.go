package staircase

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-psych/internal/enum"
)

// Rule selects the staircase variant.
type Rule int

const (
	RuleTransformed Rule = iota
	RuleWeighted
	RuleLimited
	RuleHybrid
)

var ruleNames = []string{"transformed", "weighted", "limited", "hybrid"}

// String returns the configuration name of r.
func (r Rule) String() string {
	return enum.Name("Rule", ruleNames, r)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rule) MarshalText() ([]byte, error) {
	return enum.Marshal("rule", ruleNames, r)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (r *Rule) UnmarshalText(text []byte) error {
	return enum.Unmarshal(r, ErrInvalidConfig, "rule", ruleNames, text)
}

// AdaptiveType selects how a step is applied to the level.
type AdaptiveType int

const (
	// Arithmetic adds or subtracts the step: level ± step.
	Arithmetic AdaptiveType = iota
	// Geometric multiplies or divides by the step: level * step^±1.
	Geometric
)

var adaptiveTypeNames = []string{"arithmetic", "geometric"}

// String returns the configuration name of a.
func (a AdaptiveType) String() string {
	return enum.Name("AdaptiveType", adaptiveTypeNames, a)
}

// MarshalText implements encoding.TextMarshaler.
func (a AdaptiveType) MarshalText() ([]byte, error) {
	return enum.Marshal("adaptive type", adaptiveTypeNames, a)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (a *AdaptiveType) UnmarshalText(text []byte) error {
	return enum.Unmarshal(a, ErrInvalidConfig, "adaptive type", adaptiveTypeNames, text)
}

// Direction is the sense of a level change.
type Direction int

const (
	Down Direction = iota
	Up
)

var directionNames = []string{"down", "up"}

// String returns the configuration name of d.
func (d Direction) String() string {
	return enum.Name("Direction", directionNames, d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return enum.Marshal("direction", directionNames, d)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (d *Direction) UnmarshalText(text []byte) error {
	return enum.Unmarshal(d, ErrInvalidConfig, "direction", directionNames, text)
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Up {
		return Down
	}

	return Up
}

func (d Direction) sign() float64 {
	if d == Up {
		return 1
	}

	return -1
}

// Config defines one adaptive track.
type Config struct {
	Rule       Rule    `yaml:"rule"`
	StartLevel float64 `yaml:"startLevel"`

	// Consecutive responses needed before the level moves.
	NumberCorrectNeeded   int `yaml:"numberCorrectNeeded"`
	NumberIncorrectNeeded int `yaml:"numberIncorrectNeeded"`

	// StepSize1 applies before InitialTurnpoints turnpoints, StepSize2 after.
	StepSize1         float64 `yaml:"stepSize1"`
	StepSize2         float64 `yaml:"stepSize2"`
	InitialTurnpoints int     `yaml:"initialTurnpoints"`
	TotalTurnpoints   int     `yaml:"totalTurnpoints"`

	AdaptiveType AdaptiveType `yaml:"adaptiveType"`

	// CorrectDirection is the way the level moves after correct responses.
	CorrectDirection Direction `yaml:"correctDirection"`

	// PercentCorrectTracked is the convergence point of RuleWeighted.
	PercentCorrectTracked float64 `yaml:"percentCorrectTracked"`

	// MinLevel and MaxLevel bound RuleLimited tracks.
	MinLevel float64 `yaml:"minLevel"`
	MaxLevel float64 `yaml:"maxLevel"`

	// LimitLevel is where a RuleHybrid track switches to constant stimuli.
	// It is approached by moves opposite to CorrectDirection.
	LimitLevel                   float64 `yaml:"limitLevel"`
	SwitchAfterInitialTurnpoints bool    `yaml:"switchAfterInitialTurnpoints"`
	TrialsAtLimit                int     `yaml:"trialsAtLimit"`
}

// DefaultConfig returns a 2-down/1-up arithmetic track starting at 50 with
// 4 initial and 12 total turnpoints.
func DefaultConfig() Config {
	return Config{
		Rule:                  RuleTransformed,
		StartLevel:            50,
		NumberCorrectNeeded:   2,
		NumberIncorrectNeeded: 1,
		StepSize1:             4,
		StepSize2:             2,
		InitialTurnpoints:     4,
		TotalTurnpoints:       12,
		AdaptiveType:          Arithmetic,
		CorrectDirection:      Down,
		PercentCorrectTracked: 70.7,
		MinLevel:              math.Inf(-1),
		MaxLevel:              math.Inf(1),
		LimitLevel:            math.Inf(1),
		TrialsAtLimit:         20,
	}
}

// Validate checks the configuration for the selected rule.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if c.Rule < RuleTransformed || c.Rule > RuleHybrid {
		return invalid("unknown rule %d", int(c.Rule))
	}

	if c.AdaptiveType != Arithmetic && c.AdaptiveType != Geometric {
		return invalid("unknown adaptive type %d", int(c.AdaptiveType))
	}

	if c.CorrectDirection != Down && c.CorrectDirection != Up {
		return invalid("unknown direction %d", int(c.CorrectDirection))
	}

	if c.NumberCorrectNeeded < 1 || c.NumberIncorrectNeeded < 1 {
		return invalid("response counts must be >= 1: %d/%d", c.NumberCorrectNeeded, c.NumberIncorrectNeeded)
	}

	if math.IsNaN(c.StartLevel) || math.IsInf(c.StartLevel, 0) {
		return invalid("start level must be finite: %v", c.StartLevel)
	}

	for _, s := range []float64{c.StepSize1, c.StepSize2} {
		if !(s > 0) || math.IsInf(s, 0) {
			return invalid("step size must be positive and finite: %v", s)
		}

		if c.AdaptiveType == Geometric && s <= 1 {
			return invalid("geometric step size must be > 1: %v", s)
		}
	}

	if c.AdaptiveType == Geometric && c.StartLevel == 0 {
		return invalid("geometric track cannot start at level 0")
	}

	if c.InitialTurnpoints < 0 || c.TotalTurnpoints < 1 || c.TotalTurnpoints < c.InitialTurnpoints {
		return invalid("turnpoints must satisfy 0 <= initial (%d) <= total (%d), total >= 1",
			c.InitialTurnpoints, c.TotalTurnpoints)
	}

	switch c.Rule {
	case RuleWeighted:
		if !(c.PercentCorrectTracked > 0) || !(c.PercentCorrectTracked < 100) {
			return invalid("percent correct tracked must be in (0, 100): %v", c.PercentCorrectTracked)
		}
	case RuleLimited:
		if !(c.MinLevel < c.MaxLevel) {
			return invalid("min level %v must be below max level %v", c.MinLevel, c.MaxLevel)
		}

		if c.StartLevel < c.MinLevel || c.StartLevel > c.MaxLevel {
			return invalid("start level %v outside [%v, %v]", c.StartLevel, c.MinLevel, c.MaxLevel)
		}
	case RuleHybrid:
		if math.IsNaN(c.LimitLevel) || math.IsInf(c.LimitLevel, 0) {
			return invalid("hybrid limit level must be finite: %v", c.LimitLevel)
		}

		if c.TrialsAtLimit < 1 {
			return invalid("trials at limit must be >= 1: %d", c.TrialsAtLimit)
		}
	}

	return nil
}

// WeightRatio returns the factor applied to steps opposite to the correct
// direction: p / (100 - p) for RuleWeighted, 1 otherwise.
func (c Config) WeightRatio() float64 {
	if c.Rule != RuleWeighted {
		return 1
	}

	return c.PercentCorrectTracked / (100 - c.PercentCorrectTracked)
}
