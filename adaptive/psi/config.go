package psi

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-psych/internal/enum"
	"github.com/cwbudde/algo-psych/psychometric"
)

// Variant selects whether the guess rate is fixed or estimated.
type Variant int

const (
	// VariantStandard fixes gamma at 1/NAlternatives.
	VariantStandard Variant = iota
	// VariantGuessRate estimates gamma on the Gamma axis.
	VariantGuessRate
)

var variantNames = []string{"standard", "guess-rate"}

// String returns the configuration name of v.
func (v Variant) String() string {
	return enum.Name("Variant", variantNames, v)
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return enum.Marshal("variant", variantNames, v)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (v *Variant) UnmarshalText(text []byte) error {
	return enum.Unmarshal(v, ErrInvalidConfig, "variant", variantNames, text)
}

// Scale is the stimulus scale. On a logarithmic scale the stimulus and
// threshold grids live in natural-log units of the magnitude of the
// configured limits; a negative sign convention is restored on output.
type Scale int

const (
	ScaleLinear Scale = iota
	ScaleLogarithmic
)

var scaleNames = []string{"linear", "logarithmic"}

// String returns the configuration name of s.
func (s Scale) String() string {
	return enum.Name("Scale", scaleNames, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scale) MarshalText() ([]byte, error) {
	return enum.Marshal("scale", scaleNames, s)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (s *Scale) UnmarshalText(text []byte) error {
	return enum.Unmarshal(s, ErrInvalidConfig, "scale", scaleNames, text)
}

// Marginalize lists the axes summed out of each hypothetical posterior
// before its entropy is computed. At least one axis must be kept.
type Marginalize struct {
	Alpha  bool `yaml:"alpha"`
	Beta   bool `yaml:"beta"`
	Gamma  bool `yaml:"gamma"`
	Lambda bool `yaml:"lambda"`
}

func (m Marginalize) mask() [4]bool {
	return [4]bool{m.Alpha, m.Beta, m.Gamma, m.Lambda}
}

// Config describes a PSI estimator.
//
// Stimulus limits are given in caller units; on a logarithmic scale both
// limits must share one sign and the Stimulus and Alpha steps are in
// natural-log units. Stimulus.Prior is ignored. Gamma is ignored in
// VariantStandard.
type Config struct {
	Variant       Variant             `yaml:"variant"`
	Family        psychometric.Family `yaml:"family"`
	StimScale     Scale               `yaml:"stimScale"`
	NAlternatives int                 `yaml:"nAlternatives"`

	Stimulus Axis `yaml:"stimulus"`
	Alpha    Axis `yaml:"alpha"`
	Beta     Axis `yaml:"beta"`
	Gamma    Axis `yaml:"gamma"`
	Lambda   Axis `yaml:"lambda"`

	Marginalize Marginalize `yaml:"marginalize"`

	// StartLevel, when set, is presented on the first trial instead of the
	// entropy-optimal level. It is snapped to the stimulus grid.
	StartLevel *float64 `yaml:"startLevel,omitempty"`

	// ResumeFrom replaces the prior with a previously saved posterior.
	ResumeFrom *Snapshot `yaml:"-"`
}

// DefaultConfig returns a two-alternative logistic setup on a linear
// stimulus axis from -20 to 20.
func DefaultConfig() Config {
	return Config{
		Variant:       VariantStandard,
		Family:        psychometric.Logistic,
		StimScale:     ScaleLinear,
		NAlternatives: 2,
		Stimulus:      Axis{Limits: [2]float64{-20, 20}, Step: 1},
		Alpha:         Axis{Limits: [2]float64{-20, 20}, Step: 1},
		Beta: Axis{
			Limits:  [2]float64{0.1, 10},
			Step:    0.1,
			Spacing: Logarithmic,
		},
		Gamma:  Axis{Limits: [2]float64{0, 0.5}, Step: 0.05},
		Lambda: Axis{Limits: [2]float64{0, 0.1}, Step: 0.01},
	}
}

// grid is a realized configuration.
type grid struct {
	stim   []float64
	sign   float64
	axes   [4][]float64
	priors [4][]float64
}

// Validate checks the configuration by realizing its grids.
func (c Config) Validate() error {
	_, err := c.realize()

	return err
}

func (c Config) realize() (grid, error) {
	g := grid{sign: 1}

	if _, err := psychometric.ParseFamily(c.Family.String()); err != nil {
		return g, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	stimAxis, alphaAxis := c.Stimulus, c.Alpha

	switch c.StimScale {
	case ScaleLinear:
	case ScaleLogarithmic:
		sign, err := logSign(c.Stimulus.Limits)
		if err != nil {
			return g, fmt.Errorf("stimulus: %w", err)
		}

		if _, err := logSign(c.Alpha.Limits); err != nil {
			return g, fmt.Errorf("alpha: %w", err)
		}

		if c.Alpha.Spacing == Logarithmic || c.Stimulus.Spacing == Logarithmic {
			return g, fmt.Errorf("%w: logarithmic spacing on a logarithmic stimulus scale", ErrInvalidConfig)
		}

		if c.Alpha.Prior.Dist == Normal && c.Alpha.Prior.Mu == 0 {
			return g, fmt.Errorf("%w: alpha: normal prior mean must be nonzero on a logarithmic scale", ErrInvalidConfig)
		}

		g.sign = sign
		stimAxis = toLogAxis(stimAxis)
		alphaAxis = toLogAxis(alphaAxis)
	default:
		return g, fmt.Errorf("%w: unknown stimulus scale %d", ErrInvalidConfig, int(c.StimScale))
	}

	stim, err := stimAxis.Values()
	if err != nil {
		return g, fmt.Errorf("stimulus: %w", err)
	}

	g.stim = stim

	gammaAxis := c.Gamma

	switch c.Variant {
	case VariantStandard:
		if c.NAlternatives < 2 {
			return g, fmt.Errorf("%w: standard variant needs nAlternatives >= 2: %d", ErrInvalidConfig, c.NAlternatives)
		}

		gammaAxis = FixedAxis(1 / float64(c.NAlternatives))
	case VariantGuessRate:
	default:
		return g, fmt.Errorf("%w: unknown variant %d", ErrInvalidConfig, int(c.Variant))
	}

	names := [4]string{"alpha", "beta", "gamma", "lambda"}
	for k, a := range [4]Axis{alphaAxis, c.Beta, gammaAxis, c.Lambda} {
		vals, err := a.Values()
		if err != nil {
			return g, fmt.Errorf("%s: %w", names[k], err)
		}

		prior, err := a.Density(vals)
		if err != nil {
			return g, fmt.Errorf("%s: %w", names[k], err)
		}

		g.axes[k], g.priors[k] = vals, prior
	}

	if err := checkDomain(g.axes, c.Family); err != nil {
		return g, err
	}

	if c.Marginalize.mask() == [4]bool{true, true, true, true} {
		return g, fmt.Errorf("%w: cannot marginalize all four axes", ErrInvalidConfig)
	}

	if c.StartLevel != nil && math.IsNaN(*c.StartLevel) {
		return g, fmt.Errorf("%w: start level is NaN", ErrInvalidConfig)
	}

	return g, nil
}

// checkDomain validates the extreme grid points against the model.
func checkDomain(axes [4][]float64, f psychometric.Family) error {
	alpha, beta, gamma, lambda := axes[0], axes[1], axes[2], axes[3]

	p := psychometric.Params{
		Alpha:  alpha[0],
		Beta:   beta[0],
		Gamma:  gamma[len(gamma)-1],
		Lambda: lambda[len(lambda)-1],
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if gamma[0] < 0 || lambda[0] < 0 {
		return fmt.Errorf("%w: negative guess or lapse rate on the grid", ErrInvalidConfig)
	}

	if f == psychometric.Weibull && alpha[0] <= 0 {
		return fmt.Errorf("%w: weibull threshold grid must be positive", ErrInvalidConfig)
	}

	return nil
}

func logSign(limits [2]float64) (float64, error) {
	switch {
	case limits[0] > 0 && limits[1] > 0:
		return 1, nil
	case limits[0] < 0 && limits[1] < 0:
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: logarithmic scale needs limits of one sign: %v", ErrInvalidConfig, limits)
	}
}

// toLogAxis maps caller-unit limits and prior mean to log-magnitude units.
func toLogAxis(a Axis) Axis {
	lo, hi := math.Log(math.Abs(a.Limits[0])), math.Log(math.Abs(a.Limits[1]))
	a.Limits = [2]float64{min(lo, hi), max(lo, hi)}

	if a.Prior.Dist == Normal {
		a.Prior.Mu = math.Log(math.Abs(a.Prior.Mu))
	}

	return a
}
