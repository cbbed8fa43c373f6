package psi

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-psych/internal/enum"
)

// Spacing selects how grid points are distributed between the axis limits.
type Spacing int

const (
	// Linear grids are arithmetic sequences lo, lo+step, ...
	Linear Spacing = iota
	// Logarithmic grids are geometric sequences whose natural logarithms are
	// step apart.
	Logarithmic
)

var spacingNames = []string{"linear", "logarithmic"}

// String returns the configuration name of s.
func (s Spacing) String() string {
	return enum.Name("Spacing", spacingNames, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Spacing) MarshalText() ([]byte, error) {
	return enum.Marshal("spacing", spacingNames, s)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (s *Spacing) UnmarshalText(text []byte) error {
	return enum.Unmarshal(s, ErrInvalidConfig, "spacing", spacingNames, text)
}

// Dist selects the shape of an axis prior.
type Dist int

const (
	Uniform Dist = iota
	Normal
	Gamma
)

var distNames = []string{"uniform", "normal", "gamma"}

// String returns the configuration name of d.
func (d Dist) String() string {
	return enum.Name("Dist", distNames, d)
}

// MarshalText implements encoding.TextMarshaler.
func (d Dist) MarshalText() ([]byte, error) {
	return enum.Marshal("distribution", distNames, d)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (d *Dist) UnmarshalText(text []byte) error {
	return enum.Unmarshal(d, ErrInvalidConfig, "distribution", distNames, text)
}

// Prior is the marginal prior of one axis.
//
// Normal priors on logarithmic axes are evaluated over the natural logarithm
// of the grid values with mean log(Mu) and standard deviation Std in log
// units. Gamma priors take Mu as the mode and Std as the standard deviation.
type Prior struct {
	Dist Dist    `yaml:"dist"`
	Mu   float64 `yaml:"mu"`
	Std  float64 `yaml:"std"`
}

// Axis describes one dimension of the estimation grid.
type Axis struct {
	Limits  [2]float64 `yaml:"limits"`
	Step    float64    `yaml:"step"`
	Spacing Spacing    `yaml:"spacing"`
	Prior   Prior      `yaml:"prior"`
}

// FixedAxis returns a single-point axis at v.
func FixedAxis(v float64) Axis {
	return Axis{Limits: [2]float64{v, v}, Step: 1}
}

// gridTolerance absorbs rounding in the last step so hi is included.
const gridTolerance = 1e-9

// Values realizes the grid: strictly increasing values from lo to hi with
// Step resolution. Both limits are grid points; when Step does not divide
// the range the last interval is shorter. lo == hi yields a single point.
func (a Axis) Values() ([]float64, error) {
	lo, hi := a.Limits[0], a.Limits[1]

	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: axis limits must be finite: %v", ErrInvalidConfig, a.Limits)
	}

	if lo > hi {
		return nil, fmt.Errorf("%w: axis limits out of order: %v", ErrInvalidConfig, a.Limits)
	}

	if lo == hi {
		return []float64{lo}, nil
	}

	if !(a.Step > 0) || math.IsInf(a.Step, 0) {
		return nil, fmt.Errorf("%w: axis step must be positive: %v", ErrInvalidConfig, a.Step)
	}

	switch a.Spacing {
	case Linear:
		return arange(lo, hi, a.Step), nil
	case Logarithmic:
		if lo <= 0 {
			return nil, fmt.Errorf("%w: logarithmic axis needs positive limits: %v", ErrInvalidConfig, a.Limits)
		}

		out := arange(math.Log(lo), math.Log(hi), a.Step)
		for i, v := range out {
			out[i] = math.Exp(v)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown spacing %d", ErrInvalidConfig, int(a.Spacing))
	}
}

// arange returns lo, lo+step, ... up to hi. When step does not divide the
// range, hi is appended so the grid always reaches both limits.
func arange(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+gridTolerance)) + 1
	out := make([]float64, n, n+1)

	for i := range out {
		out[i] = lo + float64(i)*step
	}

	if hi-out[n-1] > gridTolerance*step {
		out = append(out, hi)
	}

	return out
}

// Density returns the unnormalized prior over the given grid values.
func (a Axis) Density(values []float64) ([]float64, error) {
	p := a.Prior
	out := make([]float64, len(values))

	switch p.Dist {
	case Uniform:
		for i := range out {
			out[i] = 1
		}
	case Normal:
		if !(p.Std > 0) {
			return nil, fmt.Errorf("%w: normal prior needs std > 0: %v", ErrInvalidConfig, p.Std)
		}

		mu := p.Mu
		if a.Spacing == Logarithmic {
			if mu <= 0 {
				return nil, fmt.Errorf("%w: normal prior on logarithmic axis needs mu > 0: %v", ErrInvalidConfig, mu)
			}

			mu = math.Log(mu)
		}

		for i, v := range values {
			if a.Spacing == Logarithmic {
				v = math.Log(v)
			}

			out[i] = normalPDF(v, mu, p.Std)
		}
	case Gamma:
		if !(p.Std > 0) || p.Mu < 0 {
			return nil, fmt.Errorf("%w: gamma prior needs mode >= 0 and std > 0: %v/%v", ErrInvalidConfig, p.Mu, p.Std)
		}

		shape, rate := gammaShapeRate(p.Mu, p.Std)
		for i, v := range values {
			out[i] = gammaPDF(v, shape, rate)
		}
	default:
		return nil, fmt.Errorf("%w: unknown prior distribution %d", ErrInvalidConfig, int(p.Dist))
	}

	sum := 0.0
	for _, v := range out {
		sum += v
	}

	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: prior has no mass on the grid %v", ErrInvalidConfig, a.Limits)
	}

	return out, nil
}

func normalPDF(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma

	return math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
}

// gammaShapeRate converts a mode and standard deviation into the shape and
// rate of a gamma distribution: mode = (k-1)/r, var = k/r^2.
func gammaShapeRate(mode, sd float64) (shape, rate float64) {
	rate = (mode + math.Sqrt(mode*mode+4*sd*sd)) / (2 * sd * sd)
	shape = 1 + mode*rate

	return shape, rate
}

func gammaPDF(x, shape, rate float64) float64 {
	if x < 0 {
		return 0
	}

	if x == 0 {
		if shape == 1 {
			return rate
		}

		return 0
	}

	lg, _ := math.Lgamma(shape)

	return math.Exp(shape*math.Log(rate) + (shape-1)*math.Log(x) - rate*x - lg)
}
