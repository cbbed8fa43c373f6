package procedure

import (
	"errors"

	"github.com/cwbudde/algo-psych/psychometric"
	"github.com/cwbudde/algo-psych/stats/summary"
)

var (
	ErrInvalidConfig = errors.New("procedure: invalid configuration")
	ErrUnknownKind   = errors.New("procedure: unknown kind")
	ErrDuplicateKind = errors.New("procedure: duplicate kind")
	ErrFinished      = errors.New("procedure: already finished")
)

// Procedure kinds registered by DefaultRegistry.
const (
	KindPSI          = "psi"
	KindPSIGuessRate = "psi-guess-rate"
	KindStaircase    = "staircase"
	KindInterleaved  = "interleaved"
	KindPEST         = "pest"
	KindMaxLik       = "maxlik"
)

// Step is the outcome of one trial.
type Step struct {
	// Next is the stimulus for the coming trial.
	Next float64
	// Track is the interleaved track Next belongs to; 0 otherwise.
	Track int
	Done  bool
}

// Estimate reports what a procedure has learned so far.
type Estimate struct {
	Kind   string
	Trials int
	// Threshold is the primary estimate; NaN when none is available.
	Threshold float64
	// SD is the turnpoint spread behind a staircase threshold; NaN otherwise.
	SD float64
	// Params is set by procedures that estimate a psychometric function.
	Params *psychometric.Params
	// PercentCorrect is the percent correct at the limit of a hybrid track
	// that reached it; NaN otherwise.
	PercentCorrect float64
	// Tracks holds one summary per interleaved track, TrackPercentCorrect the
	// matching hybrid results.
	Tracks              []summary.Summary
	TrackPercentCorrect []float64
}

// Procedure is one adaptive procedure in progress.
type Procedure interface {
	// Stimulus returns the stimulus to present next.
	Stimulus() float64
	// Update records the response to Stimulus. It returns an error wrapping
	// ErrFinished once the procedure is done and panics on an invalid
	// response.
	Update(r psychometric.Response) (Step, error)
	Done() bool
	Estimate() Estimate
}
