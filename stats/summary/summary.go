// Package summary computes descriptive statistics for short sequences such as
// staircase turnpoints.
package summary

import (
	"errors"
	"math"
)

// ErrNonPositive is returned by [Geometric] when a value has zero magnitude.
var ErrNonPositive = errors.New("summary: geometric statistics need non-zero values")

// Summary holds descriptive statistics of a sequence.
//
// For geometric summaries Mean is the geometric mean and SD the geometric
// standard deviation factor exp(sd(log|x|)).
type Summary struct {
	N    int
	Mean float64
	SD   float64 // sample standard deviation (n-1); NaN when N < 2
	Min  float64
	Max  float64
}

// Available reports whether the summary holds at least one value.
func (s Summary) Available() bool {
	return s.N > 0
}

func emptySummary() Summary {
	return Summary{
		Mean: math.NaN(),
		SD:   math.NaN(),
		Min:  math.NaN(),
		Max:  math.NaN(),
	}
}

// Calculate returns the arithmetic summary of values.
func Calculate(values []float64) Summary {
	r := NewRunning()
	r.Update(values...)

	return r.Result()
}

// Geometric returns the geometric summary of the absolute values.
func Geometric(values []float64) (Summary, error) {
	if len(values) == 0 {
		return emptySummary(), nil
	}

	logs := make([]float64, len(values))
	for i, v := range values {
		a := math.Abs(v)
		if a == 0 {
			return emptySummary(), ErrNonPositive
		}

		logs[i] = math.Log(a)
	}

	s := Calculate(logs)
	s.Mean = math.Exp(s.Mean)
	s.SD = math.Exp(s.SD)
	s.Min = math.Exp(s.Min)
	s.Max = math.Exp(s.Max)

	return s, nil
}

// Running accumulates a summary incrementally using Welford's algorithm.
type Running struct {
	n      int
	mean   float64
	m2     float64
	minVal float64
	maxVal float64
}

// NewRunning creates an empty accumulator.
func NewRunning() *Running {
	return &Running{}
}

// Update adds values to the running statistics.
func (r *Running) Update(values ...float64) {
	for _, x := range values {
		r.n++
		if r.n == 1 {
			r.minVal, r.maxVal = x, x
		} else {
			r.minVal = math.Min(r.minVal, x)
			r.maxVal = math.Max(r.maxVal, x)
		}

		delta := x - r.mean
		r.mean += delta / float64(r.n)
		r.m2 += delta * (x - r.mean)
	}
}

// Result returns the statistics accumulated so far.
func (r *Running) Result() Summary {
	if r.n == 0 {
		return emptySummary()
	}

	sd := math.NaN()
	if r.n > 1 {
		sd = math.Sqrt(r.m2 / float64(r.n-1))
	}

	return Summary{
		N:    r.n,
		Mean: r.mean,
		SD:   sd,
		Min:  r.minVal,
		Max:  r.maxVal,
	}
}

// Reset clears the accumulator.
func (r *Running) Reset() {
	*r = Running{}
}
