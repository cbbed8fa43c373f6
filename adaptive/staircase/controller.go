package staircase

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-psych/psychometric"
	"github.com/cwbudde/algo-psych/stats/summary"
)

// Controller owns one adaptive track.
//
// This implementation is single-threaded and not thread-safe.
type Controller struct {
	cfg    Config
	track  Track
	levels []float64
}

// New creates a controller for cfg.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Controller{cfg: cfg, track: NewTrack(cfg)}, nil
}

// Config returns the track configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Level returns the level to present on the next trial.
func (c *Controller) Level() float64 {
	return c.track.Level
}

// Done reports whether the track has terminated.
func (c *Controller) Done() bool {
	return c.track.Done()
}

// Track returns a copy of the current state.
func (c *Controller) Track() Track {
	t := c.track
	t.Turnpoints = slices.Clone(c.track.Turnpoints)

	return t
}

// Levels returns the levels presented so far, one per trial.
func (c *Controller) Levels() []float64 {
	return slices.Clone(c.levels)
}

// Update records the response to the current level and returns the next
// level. It returns ErrFinished once the track is terminal and panics on an
// invalid response.
func (c *Controller) Update(r psychometric.Response) (float64, error) {
	r.MustValid("staircase")

	if c.track.Done() {
		return c.track.Level, fmt.Errorf("%w after %d trials", ErrFinished, c.track.Trials)
	}

	c.levels = append(c.levels, c.track.Level)
	c.track = Step(c.cfg, c.track, r)

	return c.track.Level, nil
}

// Threshold summarizes the turnpoints selected by avg.
func (c *Controller) Threshold(avg Average) (summary.Summary, error) {
	return Threshold(c.cfg, c.track, avg)
}

// PercentCorrectAtLimit returns the percent correct collected at the hybrid
// limit. ok is false when the track never reached the limit.
func (c *Controller) PercentCorrectAtLimit() (pct float64, ok bool) {
	if c.track.LimitTrials == 0 {
		return 0, false
	}

	return 100 * float64(c.track.LimitCorrect) / float64(c.track.LimitTrials), true
}
