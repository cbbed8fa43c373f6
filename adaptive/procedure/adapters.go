package procedure

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-psych/adaptive/maxlik"
	"github.com/cwbudde/algo-psych/adaptive/pest"
	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/adaptive/staircase"
	"github.com/cwbudde/algo-psych/psychometric"
	"github.com/cwbudde/algo-psych/stats/summary"
)

// Snapshotter is implemented by procedures with a persistable posterior.
type Snapshotter interface {
	Snapshot() psi.Snapshot
}

func finished(kind string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrFinished, kind)
	}

	return fmt.Errorf("%w: %s: %w", ErrFinished, kind, err)
}

// PSIProcedure adapts a psi.Estimator. Stimuli are in caller units.
type PSIProcedure struct {
	kind string
	est  *psi.Estimator
}

// NewPSIProcedure wraps an estimator. The estimator never finishes on its
// own; bound it with a trial budget.
func NewPSIProcedure(kind string, est *psi.Estimator) *PSIProcedure {
	return &PSIProcedure{kind: kind, est: est}
}

// Estimator returns the wrapped estimator.
func (p *PSIProcedure) Estimator() *psi.Estimator {
	return p.est
}

func (p *PSIProcedure) Stimulus() float64 {
	return p.est.NextLinear()
}

func (p *PSIProcedure) Update(r psychometric.Response) (Step, error) {
	p.est.Update(r)

	return Step{Next: p.est.NextLinear()}, nil
}

func (p *PSIProcedure) Done() bool {
	return false
}

func (p *PSIProcedure) Estimate() Estimate {
	params := p.est.Estimate().Params()

	return Estimate{
		Kind:      p.kind,
		Trials:    p.est.Trials(),
		Threshold:      params.Alpha,
		SD:             math.NaN(),
		PercentCorrect: math.NaN(),
		Params:         &params,
	}
}

func (p *PSIProcedure) Snapshot() psi.Snapshot {
	return p.est.Snapshot()
}

// StaircaseProcedure adapts a single staircase track.
type StaircaseProcedure struct {
	c   *staircase.Controller
	avg staircase.Average
}

func NewStaircaseProcedure(c *staircase.Controller, avg staircase.Average) *StaircaseProcedure {
	return &StaircaseProcedure{c: c, avg: avg}
}

func (p *StaircaseProcedure) Stimulus() float64 {
	return p.c.Level()
}

func (p *StaircaseProcedure) Update(r psychometric.Response) (Step, error) {
	next, err := p.c.Update(r)
	if errors.Is(err, staircase.ErrFinished) {
		return Step{Next: next, Done: true}, finished(KindStaircase, err)
	}

	if err != nil {
		return Step{}, err
	}

	return Step{Next: next, Done: p.c.Done()}, nil
}

func (p *StaircaseProcedure) Done() bool {
	return p.c.Done()
}

func (p *StaircaseProcedure) Estimate() Estimate {
	est := Estimate{Kind: KindStaircase, Trials: p.c.Track().Trials, PercentCorrect: percentAtLimit(p.c)}
	est.Threshold, est.SD = threshold(p.c.Threshold(p.avg))

	return est
}

func percentAtLimit(c *staircase.Controller) float64 {
	pct, ok := c.PercentCorrectAtLimit()
	if !ok {
		return math.NaN()
	}

	return pct
}

func threshold(s summary.Summary, err error) (mean, sd float64) {
	if err != nil || !s.Available() {
		return math.NaN(), math.NaN()
	}

	return s.Mean, s.SD
}

// InterleavedProcedure adapts a staircase scheduler.
type InterleavedProcedure struct {
	s   *staircase.Scheduler
	avg staircase.Average
}

func NewInterleavedProcedure(s *staircase.Scheduler, avg staircase.Average) *InterleavedProcedure {
	return &InterleavedProcedure{s: s, avg: avg}
}

// Track returns the track the next stimulus belongs to, or -1 when done.
func (p *InterleavedProcedure) Track() int {
	track, _, _ := p.s.Next()

	return track
}

func (p *InterleavedProcedure) Stimulus() float64 {
	_, level, ok := p.s.Next()
	if !ok {
		return math.NaN()
	}

	return level
}

func (p *InterleavedProcedure) Update(r psychometric.Response) (Step, error) {
	if _, _, ok := p.s.Next(); !ok {
		return Step{Done: true}, finished(KindInterleaved, nil)
	}

	if _, err := p.s.Update(r); err != nil {
		return Step{}, err
	}

	track, level, ok := p.s.Next()
	if !ok {
		return Step{Next: math.NaN(), Track: -1, Done: true}, nil
	}

	return Step{Next: level, Track: track}, nil
}

func (p *InterleavedProcedure) Done() bool {
	return p.s.Done()
}

func (p *InterleavedProcedure) Estimate() Estimate {
	est := Estimate{Kind: KindInterleaved, Threshold: math.NaN(), SD: math.NaN(), PercentCorrect: math.NaN()}

	for i := range p.s.NumTracks() {
		c := p.s.Track(i)
		est.Trials += c.Track().Trials

		th, err := c.Threshold(p.avg)
		if err != nil {
			th = summary.Calculate(nil)
		}

		est.Tracks = append(est.Tracks, th)
		est.TrackPercentCorrect = append(est.TrackPercentCorrect, percentAtLimit(c))
	}

	return est
}

// PESTProcedure adapts a PEST track.
type PESTProcedure struct {
	c *pest.Controller
}

func NewPESTProcedure(c *pest.Controller) *PESTProcedure {
	return &PESTProcedure{c: c}
}

func (p *PESTProcedure) Stimulus() float64 {
	return p.c.Level()
}

func (p *PESTProcedure) Update(r psychometric.Response) (Step, error) {
	next, err := p.c.Update(r)
	if errors.Is(err, pest.ErrFinished) {
		return Step{Next: next, Done: true}, finished(KindPEST, err)
	}

	if err != nil {
		return Step{}, err
	}

	return Step{Next: next, Done: p.c.Done()}, nil
}

func (p *PESTProcedure) Done() bool {
	return p.c.Done()
}

func (p *PESTProcedure) Estimate() Estimate {
	return Estimate{
		Kind:           KindPEST,
		Trials:         p.c.Trials(),
		Threshold:      p.c.Result(),
		SD:             math.NaN(),
		PercentCorrect: math.NaN(),
	}
}

// MaxLikProcedure adapts a maximum-likelihood track. Like PSI it needs a
// trial budget to finish.
type MaxLikProcedure struct {
	c   *maxlik.Controller
	cfg maxlik.Config
}

func NewMaxLikProcedure(c *maxlik.Controller, cfg maxlik.Config) *MaxLikProcedure {
	return &MaxLikProcedure{c: c, cfg: cfg}
}

func (p *MaxLikProcedure) Stimulus() float64 {
	return p.c.Level()
}

func (p *MaxLikProcedure) Update(r psychometric.Response) (Step, error) {
	return Step{Next: p.c.Update(r)}, nil
}

func (p *MaxLikProcedure) Done() bool {
	return false
}

func (p *MaxLikProcedure) Estimate() Estimate {
	params := psychometric.Params{
		Alpha:  p.c.Threshold(),
		Beta:   p.cfg.Beta,
		Gamma:  p.cfg.Gamma,
		Lambda: p.cfg.Lambda,
	}

	return Estimate{
		Kind:      KindMaxLik,
		Trials:    p.c.Trials(),
		Threshold:      params.Alpha,
		SD:             math.NaN(),
		PercentCorrect: math.NaN(),
		Params:         &params,
	}
}

// Budget ends a procedure after a fixed number of trials in this session.
type Budget struct {
	Procedure

	max, trials int
}

// WithBudget bounds p to maxTrials updates; maxTrials <= 0 returns p.
func WithBudget(p Procedure, maxTrials int) Procedure {
	if maxTrials <= 0 {
		return p
	}

	return &Budget{Procedure: p, max: maxTrials}
}

// Remaining returns the number of trials left in the budget.
func (b *Budget) Remaining() int {
	return b.max - b.trials
}

func (b *Budget) Done() bool {
	return b.trials >= b.max || b.Procedure.Done()
}

func (b *Budget) Update(r psychometric.Response) (Step, error) {
	if b.trials >= b.max {
		return Step{Next: b.Stimulus(), Done: true}, fmt.Errorf("%w: trial budget of %d spent", ErrFinished, b.max)
	}

	step, err := b.Procedure.Update(r)
	if err != nil {
		return step, err
	}

	b.trials++
	step.Done = step.Done || b.trials >= b.max

	return step, nil
}

// Unwrap returns the bounded procedure.
func (b *Budget) Unwrap() Procedure {
	return b.Procedure
}

// SnapshotOf returns the posterior of p, looking through wrappers such as
// Budget. ok is false when p has no posterior.
func SnapshotOf(p Procedure) (s psi.Snapshot, ok bool) {
	for {
		switch v := p.(type) {
		case Snapshotter:
			return v.Snapshot(), true
		case interface{ Unwrap() Procedure }:
			p = v.Unwrap()
		default:
			return psi.Snapshot{}, false
		}
	}
}
