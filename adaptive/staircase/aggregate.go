package staircase

import (
	"fmt"

	"github.com/cwbudde/algo-psych/internal/enum"
	"github.com/cwbudde/algo-psych/stats/summary"
)

// AveragePolicy selects which turnpoints enter the final threshold.
type AveragePolicy int

const (
	// AverageAfterInitial uses every turnpoint after the initial ones.
	AverageAfterInitial AveragePolicy = iota
	// AverageAllEven uses the turnpoints after the initial ones, dropping the
	// earliest when their count is odd.
	AverageAllEven
	// AverageFirstN uses the first N turnpoints after the initial ones.
	AverageFirstN
	// AverageLastN uses the last N turnpoints overall.
	AverageLastN
)

var averagePolicyNames = []string{"after-initial", "all-even", "first-n", "last-n"}

// String returns the configuration name of p.
func (p AveragePolicy) String() string {
	return enum.Name("AveragePolicy", averagePolicyNames, p)
}

// MarshalText implements encoding.TextMarshaler.
func (p AveragePolicy) MarshalText() ([]byte, error) {
	return enum.Marshal("average policy", averagePolicyNames, p)
}

// UnmarshalText implements encoding.TextUnmarshaler. Names match
// case-insensitively; unknown names wrap ErrInvalidConfig.
func (p *AveragePolicy) UnmarshalText(text []byte) error {
	return enum.Unmarshal(p, ErrInvalidConfig, "average policy", averagePolicyNames, text)
}

// Average configures the turnpoint selection for thresholds.
type Average struct {
	Policy AveragePolicy `yaml:"policy"`
	N      int           `yaml:"n"`
}

// Validate checks that N is set for the policies that need it.
func (a Average) Validate() error {
	switch a.Policy {
	case AverageAfterInitial, AverageAllEven:
		return nil
	case AverageFirstN, AverageLastN:
		if a.N < 1 {
			return fmt.Errorf("%w: average policy %v needs N >= 1", ErrInvalidConfig, a.Policy)
		}

		return nil
	default:
		return fmt.Errorf("%w: unknown average policy %d", ErrInvalidConfig, int(a.Policy))
	}
}

// SelectTurnpoints returns the turnpoints chosen by avg. When fewer
// turnpoints than requested exist, the available ones are returned.
func SelectTurnpoints(turnpoints []float64, initial int, avg Average) []float64 {
	after := turnpoints[min(initial, len(turnpoints)):]

	switch avg.Policy {
	case AverageAllEven:
		if len(after)%2 == 1 {
			after = after[1:]
		}

		return after
	case AverageFirstN:
		return after[:min(avg.N, len(after))]
	case AverageLastN:
		return turnpoints[len(turnpoints)-min(avg.N, len(turnpoints)):]
	default:
		return after
	}
}

// Threshold summarizes the selected turnpoints: arithmetic mean and sample
// SD for arithmetic tracks, geometric mean and SD factor of the absolute
// values for geometric tracks. The summary is not available (N == 0) when no
// turnpoint qualifies.
func Threshold(cfg Config, t Track, avg Average) (summary.Summary, error) {
	selected := SelectTurnpoints(t.Turnpoints, cfg.InitialTurnpoints, avg)

	if cfg.AdaptiveType == Geometric {
		return summary.Geometric(selected)
	}

	return summary.Calculate(selected), nil
}
