package psychometric

import (
	"fmt"
	"math"
	"strings"
)

// Family identifies a psychometric function shape.
type Family int

const (
	Logistic Family = iota
	Gaussian
	Weibull
	Gumbel
)

var familyNames = [...]string{
	Logistic: "logistic",
	Gaussian: "gaussian",
	Weibull:  "weibull",
	Gumbel:   "gumbel",
}

// String returns the lower-case family name.
func (f Family) String() string {
	if f < 0 || int(f) >= len(familyNames) {
		return fmt.Sprintf("Family(%d)", int(f))
	}

	return familyNames[f]
}

// ParseFamily resolves a family name (case-insensitive).
func ParseFamily(name string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range familyNames {
		if n == key {
			return Family(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(familyNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, int(f))
	}

	return []byte(familyNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Family) UnmarshalText(text []byte) error {
	v, err := ParseFamily(string(text))
	if err != nil {
		return err
	}

	*f = v

	return nil
}

// Params holds the four psychometric function parameters.
type Params struct {
	Alpha  float64 // threshold / midpoint
	Beta   float64 // slope (spread)
	Gamma  float64 // guess rate, lower asymptote
	Lambda float64 // lapse rate, upper asymptote deficit
}

// Validate checks the domain guards shared by all families.
func (p Params) Validate() error {
	if !(p.Beta > 0) || math.IsInf(p.Beta, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSlope, p.Beta)
	}

	if p.Gamma < 0 || p.Gamma >= 1 || math.IsNaN(p.Gamma) {
		return fmt.Errorf("%w: %v", ErrInvalidGuess, p.Gamma)
	}

	if p.Lambda < 0 || p.Lambda >= 1 || math.IsNaN(p.Lambda) {
		return fmt.Errorf("%w: %v", ErrInvalidLapse, p.Lambda)
	}

	if p.Gamma+p.Lambda >= 1 {
		return fmt.Errorf("%w: %v + %v", ErrAsymptotes, p.Gamma, p.Lambda)
	}

	return nil
}

// Core evaluates the unscaled sigmoid F of the family, in [0, 1].
func Core(x, alpha, beta float64, f Family) float64 {
	switch f {
	case Logistic:
		return 1 / (1 + math.Exp(-(x-alpha)/beta))
	case Gaussian:
		return 0.5 * math.Erfc(-(x-alpha)/(beta*math.Sqrt2))
	case Gumbel:
		return -math.Expm1(-math.Exp((x - alpha) / beta))
	case Weibull:
		if x <= 0 || alpha <= 0 {
			return 0
		}

		return -math.Expm1(-math.Pow(x/alpha, beta))
	default:
		panic(fmt.Sprintf("psychometric: unknown family %d", int(f)))
	}
}

// Psi returns the probability of a correct response at stimulus x.
// Parameters are not validated here; see [Params.Validate].
func Psi(x float64, p Params, f Family) float64 {
	return p.Gamma + (1-p.Gamma-p.Lambda)*Core(x, p.Alpha, p.Beta, f)
}

// InvPsi returns the stimulus x at which Psi(x) equals target.
// The target must lie strictly between gamma and 1-lambda.
func InvPsi(target float64, p Params, f Family) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	if f == Weibull && p.Alpha <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidThreshold, p.Alpha)
	}

	if !(target > p.Gamma) || !(target < 1-p.Lambda) {
		return 0, fmt.Errorf("%w: %v not in (%v, %v)", ErrTargetRange, target, p.Gamma, 1-p.Lambda)
	}

	u := (target - p.Gamma) / (1 - p.Gamma - p.Lambda)

	switch f {
	case Logistic:
		return p.Alpha + p.Beta*math.Log(u/(1-u)), nil
	case Gaussian:
		return p.Alpha + p.Beta*math.Sqrt2*math.Erfinv(2*u-1), nil
	case Gumbel:
		return p.Alpha + p.Beta*math.Log(-math.Log1p(-u)), nil
	case Weibull:
		return p.Alpha * math.Pow(-math.Log1p(-u), 1/p.Beta), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownFamily, int(f))
	}
}
