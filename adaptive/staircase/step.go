package staircase

import (
	"math"
	"slices"

	"github.com/cwbudde/algo-psych/psychometric"
)

// Phase is the lifecycle stage of a track.
type Phase int

const (
	// PhaseTracking is the adaptive up/down phase.
	PhaseTracking Phase = iota
	// PhaseAtLimit is the constant-stimulus phase of a hybrid track.
	PhaseAtLimit
	// PhaseDone is terminal.
	PhaseDone
)

var phaseNames = []string{"tracking", "at-limit", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Phase(?)"
	}

	return phaseNames[p]
}

// Track is the state of one adaptive track. It is a value: [Step] returns a
// new Track and never mutates its input, including the Turnpoints slice.
type Track struct {
	Level     float64
	Direction Direction

	CorrectCount   int
	IncorrectCount int

	// Turnpoints holds the level at each reversal in order.
	Turnpoints []float64
	Trials     int
	Phase      Phase

	// Hybrid constant-stimulus counters.
	LimitTrials  int
	LimitCorrect int
}

// NewTrack returns the initial state for cfg. The recorded direction starts
// as the correct-response direction, so a first move against it is a
// turnpoint.
func NewTrack(cfg Config) Track {
	return Track{
		Level:     cfg.StartLevel,
		Direction: cfg.CorrectDirection,
		Phase:     PhaseTracking,
	}
}

// NTurnpoints returns the number of turnpoints recorded so far.
func (t Track) NTurnpoints() int {
	return len(t.Turnpoints)
}

// Done reports whether the track is terminal.
func (t Track) Done() bool {
	return t.Phase == PhaseDone
}

// Step applies one response to a track and returns the new state. A
// terminal track is returned unchanged. Step panics on an invalid response.
func Step(cfg Config, t Track, r psychometric.Response) Track {
	r.MustValid("staircase")

	if t.Phase == PhaseDone {
		return t
	}

	t.Trials++

	if t.Phase == PhaseAtLimit {
		t.LimitTrials++
		if r == psychometric.Correct {
			t.LimitCorrect++
		}

		if t.LimitTrials >= cfg.TrialsAtLimit {
			t.Phase = PhaseDone
		}

		return t
	}

	move, moved := countResponse(cfg, &t, r)
	if !moved {
		return t
	}

	turned := false
	if move != t.Direction {
		t = addTurnpoint(t)
		t.Direction = move
		turned = true
	}

	next := applyStep(cfg, t.Level, stepSize(cfg, t, move), move)

	switch cfg.Rule {
	case RuleLimited:
		bound := cfg.MaxLevel
		if move == Down {
			bound = cfg.MinLevel
		}

		if beyond(next, bound, move) {
			if !turned {
				t = addTurnpoint(t)
			}

			next = bound
		}
	case RuleHybrid:
		if move != cfg.CorrectDirection && !beyond(cfg.LimitLevel, next, move) {
			next = cfg.LimitLevel
			if !cfg.SwitchAfterInitialTurnpoints || t.NTurnpoints() >= cfg.InitialTurnpoints {
				t.Level = next
				t.Phase = PhaseAtLimit

				return t
			}
		}
	}

	t.Level = next

	if t.NTurnpoints() >= cfg.TotalTurnpoints {
		t.Phase = PhaseDone
	}

	return t
}

// countResponse updates the streak counters and reports whether the level
// moves and in which direction.
func countResponse(cfg Config, t *Track, r psychometric.Response) (Direction, bool) {
	if r == psychometric.Correct {
		t.IncorrectCount = 0
		t.CorrectCount++

		if t.CorrectCount < cfg.NumberCorrectNeeded {
			return 0, false
		}

		t.CorrectCount = 0

		return cfg.CorrectDirection, true
	}

	t.CorrectCount = 0
	t.IncorrectCount++

	if t.IncorrectCount < cfg.NumberIncorrectNeeded {
		return 0, false
	}

	t.IncorrectCount = 0

	return cfg.CorrectDirection.Opposite(), true
}

func addTurnpoint(t Track) Track {
	t.Turnpoints = append(slices.Clip(t.Turnpoints), t.Level)

	return t
}

// stepSize returns the step for a move, after any turnpoint of this move has
// been recorded.
func stepSize(cfg Config, t Track, move Direction) float64 {
	step := cfg.StepSize1
	if t.NTurnpoints() >= cfg.InitialTurnpoints {
		step = cfg.StepSize2
	}

	if move == cfg.CorrectDirection {
		return step
	}

	ratio := cfg.WeightRatio()
	if cfg.AdaptiveType == Geometric {
		return math.Pow(step, ratio)
	}

	return step * ratio
}

func applyStep(cfg Config, level, step float64, move Direction) float64 {
	if cfg.AdaptiveType == Geometric {
		return level * math.Pow(step, move.sign())
	}

	return level + step*move.sign()
}

// beyond reports whether x lies past bound when travelling in direction d.
func beyond(x, bound float64, d Direction) bool {
	if d == Up {
		return x > bound
	}

	return x < bound
}
