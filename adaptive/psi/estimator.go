package psi

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-psych/psychometric"
	"github.com/cwbudde/algo-vecmath"
)

// Param indexes the four posterior axes.
type Param int

const (
	ParamAlpha Param = iota
	ParamBeta
	ParamGamma
	ParamLambda
)

const (
	// entropyEpsilon keeps log2 finite for empty cells.
	entropyEpsilon = 1e-12
	// likelihoodFloor bounds the likelihood away from 0 and 1 so a single
	// response cannot empty the posterior.
	likelihoodFloor = 1e-12
)

// Trial is one presented stimulus (caller units) and its response.
type Trial struct {
	Stimulus float64
	Response psychometric.Response
}

// Estimate holds posterior means. Alpha is in caller units.
type Estimate struct {
	Alpha  float64
	Beta   float64
	Gamma  float64
	Lambda float64
}

// Params returns the estimate as psychometric parameters in caller units.
func (e Estimate) Params() psychometric.Params {
	return psychometric.Params{Alpha: e.Alpha, Beta: e.Beta, Gamma: e.Gamma, Lambda: e.Lambda}
}

// Estimator is a PSI grid-posterior estimator.
//
// The zero value is not usable; create estimators with [New]. An Estimator
// is owned by one procedure and is not safe for concurrent use.
type Estimator struct {
	cfg   Config
	stim  []float64
	sign  float64
	axes  [4][]float64
	shape [4]int

	post []float64
	lik  [][]float64

	corr, incorr []float64
	reduced      []float64
	reduceIdx    []int

	expected []float64
	next     int
	estimate Estimate
	history  []Trial
	trials   int
}

// New realizes the grids of cfg, forms the joint prior (or the posterior of
// cfg.ResumeFrom), precomputes the likelihood tensor and selects the first
// stimulus.
func New(cfg Config) (*Estimator, error) {
	g, err := cfg.realize()
	if err != nil {
		return nil, err
	}

	e := &Estimator{
		cfg:  cfg,
		stim: g.stim,
		sign: g.sign,
		axes: g.axes,
	}

	n := 1
	for k, a := range g.axes {
		e.shape[k] = len(a)
		n *= len(a)
	}

	e.post = outerProduct(g.priors, n)
	normalize(e.post)

	e.corr = make([]float64, n)
	e.incorr = make([]float64, n)
	e.expected = make([]float64, len(e.stim))
	e.buildLikelihood()
	e.buildReduction(cfg.Marginalize.mask())

	if cfg.ResumeFrom != nil {
		if err := e.Restore(*cfg.ResumeFrom); err != nil {
			return nil, err
		}
	} else {
		e.refresh()
	}

	if cfg.StartLevel != nil {
		x, err := e.toGrid(*cfg.StartLevel)
		if err != nil {
			return nil, fmt.Errorf("start level: %w", err)
		}

		e.next = nearest(e.stim, x)
	}

	return e, nil
}

func outerProduct(priors [4][]float64, n int) []float64 {
	out := make([]float64, 0, n)

	for _, pa := range priors[0] {
		for _, pb := range priors[1] {
			for _, pg := range priors[2] {
				for _, pl := range priors[3] {
					out = append(out, pa*pb*pg*pl)
				}
			}
		}
	}

	return out
}

func normalize(p []float64) {
	vecmath.ScaleBlockInPlace(p, 1/vecmath.Sum(p))
}

func (e *Estimator) buildLikelihood() {
	n := len(e.post)
	f := e.cfg.Family
	alpha, beta, gamma, lambda := e.axes[0], e.axes[1], e.axes[2], e.axes[3]

	e.lik = make([][]float64, len(e.stim))
	for i, x := range e.stim {
		l := make([]float64, 0, n)

		for _, a := range alpha {
			for _, b := range beta {
				core := psychometric.Core(x, a, b, f)

				for _, gm := range gamma {
					for _, lm := range lambda {
						p := gm + (1-gm-lm)*core
						l = append(l, min(max(p, likelihoodFloor), 1-likelihoodFloor))
					}
				}
			}
		}

		e.lik[i] = l
	}
}

// buildReduction maps every grid cell to its cell in the grid without the
// dropped axes.
func (e *Estimator) buildReduction(drop [4]bool) {
	if drop == [4]bool{} {
		return
	}

	size := 1
	for k, d := range drop {
		if !d {
			size *= e.shape[k]
		}
	}

	e.reduced = make([]float64, size)
	e.reduceIdx = make([]int, 0, len(e.post))

	var c [4]int
	for c[0] = 0; c[0] < e.shape[0]; c[0]++ {
		for c[1] = 0; c[1] < e.shape[1]; c[1]++ {
			for c[2] = 0; c[2] < e.shape[2]; c[2]++ {
				for c[3] = 0; c[3] < e.shape[3]; c[3]++ {
					r := 0
					for k, d := range drop {
						if !d {
							r = r*e.shape[k] + c[k]
						}
					}

					e.reduceIdx = append(e.reduceIdx, r)
				}
			}
		}
	}
}

func (e *Estimator) mustReady() {
	if e.post == nil {
		panic("psi: use of zero Estimator; create it with New")
	}
}

// Update records the response to the current Next stimulus.
func (e *Estimator) Update(r psychometric.Response) {
	e.mustReady()
	r.MustValid("psi")
	e.apply(e.next, r)
}

// UpdateAt records the response to stimulus x, given in grid units (see
// [Estimator.Next]). x is snapped to the nearest grid level; on an exact tie
// the lower level wins.
func (e *Estimator) UpdateAt(x float64, r psychometric.Response) {
	e.mustReady()
	r.MustValid("psi")
	e.apply(nearest(e.stim, x), r)
}

func (e *Estimator) apply(i int, r psychometric.Response) {
	if r == psychometric.Correct {
		vecmath.MulBlockInPlace(e.post, e.lik[i])
	} else {
		vecmath.MulBlock(e.corr, e.post, e.lik[i])
		vecmath.ScaleBlockInPlace(e.corr, -1)
		vecmath.AddBlockInPlace(e.post, e.corr)
	}

	normalize(e.post)

	e.history = append(e.history, Trial{Stimulus: e.toCaller(e.stim[i]), Response: r})
	e.trials++
	e.refresh()
}

// refresh recomputes the estimate and the next stimulus from the posterior.
func (e *Estimator) refresh() {
	e.updateEstimate()
	e.selectNext()
}

func (e *Estimator) updateEstimate() {
	m := e.marginals()

	alpha := vecmath.DotProduct(m[0], e.axes[0])
	if e.cfg.StimScale == ScaleLogarithmic {
		alpha = e.sign * math.Exp(alpha)
	}

	e.estimate = Estimate{
		Alpha:  alpha,
		Beta:   vecmath.DotProduct(m[1], e.axes[1]),
		Gamma:  vecmath.DotProduct(m[2], e.axes[2]),
		Lambda: vecmath.DotProduct(m[3], e.axes[3]),
	}
}

func (e *Estimator) marginals() [4][]float64 {
	var m [4][]float64
	for k := range m {
		m[k] = make([]float64, e.shape[k])
	}

	i := 0
	for a := range e.shape[0] {
		for b := range e.shape[1] {
			for g := range e.shape[2] {
				for l := range e.shape[3] {
					p := e.post[i]
					m[0][a] += p
					m[1][b] += p
					m[2][g] += p
					m[3][l] += p
					i++
				}
			}
		}
	}

	return m
}

// selectNext picks the level with the smallest expected posterior entropy,
// the first one on ties.
func (e *Estimator) selectNext() {
	best := math.Inf(1)
	e.next = 0

	for i, l := range e.lik {
		vecmath.MulBlock(e.corr, e.post, l)
		pCorr := vecmath.Sum(e.corr)

		vecmath.ScaleBlock(e.incorr, e.corr, -1)
		vecmath.AddBlockInPlace(e.incorr, e.post)
		pIncorr := vecmath.Sum(e.incorr)

		h := pCorr*e.entropy(e.corr, pCorr) + pIncorr*e.entropy(e.incorr, pIncorr)
		e.expected[i] = h

		if h < best {
			best = h
			e.next = i
		}
	}
}

// entropy returns the Shannon entropy in bits of q/total after summing out
// the marginalized axes. q is overwritten.
func (e *Estimator) entropy(q []float64, total float64) float64 {
	if !(total > 0) {
		return 0
	}

	if e.reduceIdx != nil {
		clear(e.reduced)
		for k, v := range q {
			e.reduced[e.reduceIdx[k]] += v
		}

		q = e.reduced
	}

	vecmath.ScaleBlockInPlace(q, 1/total)

	h := 0.0
	for _, p := range q {
		h -= p * math.Log2(p+entropyEpsilon)
	}

	return h
}

// nearest returns the index of the grid value closest to x.
func nearest(grid []float64, x float64) int {
	best, dist := 0, math.Inf(1)
	for i, v := range grid {
		if d := math.Abs(v - x); d < dist {
			best, dist = i, d
		}
	}

	return best
}

func (e *Estimator) toCaller(x float64) float64 {
	if e.cfg.StimScale == ScaleLogarithmic {
		return e.sign * math.Exp(x)
	}

	return x
}

func (e *Estimator) toGrid(x float64) (float64, error) {
	if e.cfg.StimScale != ScaleLogarithmic {
		return x, nil
	}

	if x*e.sign <= 0 {
		return 0, fmt.Errorf("%w: %v has the wrong sign for the logarithmic stimulus scale", ErrInvalidConfig, x)
	}

	return math.Log(math.Abs(x)), nil
}

// Next returns the stimulus selected for the coming trial in grid units:
// natural-log magnitude on a logarithmic stimulus scale.
func (e *Estimator) Next() float64 {
	e.mustReady()

	return e.stim[e.next]
}

// NextLinear returns the selected stimulus in caller units.
func (e *Estimator) NextLinear() float64 {
	e.mustReady()

	return e.toCaller(e.stim[e.next])
}

// Estimate returns the posterior-mean parameter estimates.
func (e *Estimator) Estimate() Estimate {
	e.mustReady()

	return e.estimate
}

// Posterior returns a copy of the flat row-major posterior.
func (e *Estimator) Posterior() []float64 {
	e.mustReady()

	return slices.Clone(e.post)
}

// Shape returns the posterior shape [nAlpha, nBeta, nGamma, nLambda].
func (e *Estimator) Shape() [4]int {
	return e.shape
}

// Stimuli returns the stimulus grid in grid units.
func (e *Estimator) Stimuli() []float64 {
	return slices.Clone(e.stim)
}

// AxisValues returns the grid of one parameter axis. Alpha is in grid units.
func (e *Estimator) AxisValues(p Param) []float64 {
	return slices.Clone(e.axes[p])
}

// ExpectedEntropy returns the expected posterior entropy of every stimulus
// level computed by the last selection.
func (e *Estimator) ExpectedEntropy() []float64 {
	e.mustReady()

	return slices.Clone(e.expected)
}

// History returns the trials recorded since setup or the last Restore.
func (e *Estimator) History() []Trial {
	return slices.Clone(e.history)
}

// Trials returns the number of responses the posterior incorporates,
// including those of a restored snapshot.
func (e *Estimator) Trials() int {
	return e.trials
}

// Config returns the configuration the estimator was built from.
func (e *Estimator) Config() Config {
	return e.cfg
}
