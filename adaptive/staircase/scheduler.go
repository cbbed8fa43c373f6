package staircase

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-psych/psychometric"
	"github.com/cwbudde/algo-psych/stats/summary"
)

// SchedulerConfig configures interleaved tracks.
type SchedulerConfig struct {
	// MaxConsecutive bounds the run of consecutive trials on one track.
	// Zero means unlimited.
	MaxConsecutive int `yaml:"maxConsecutiveTrials"`
	// Seed seeds the track choice; nil seeds from the clock.
	Seed *int64 `yaml:"seed"`
}

// Scheduler interleaves several tracks in a random trial order.
//
// Each trial the caller asks [Scheduler.Next] for the active track and level,
// presents it, and reports the response through [Scheduler.Update].
type Scheduler struct {
	tracks         []*Controller
	consecutive    []int
	maxConsecutive int
	rng            *rand.Rand

	current  int
	selected bool
}

// NewScheduler creates one controller per track configuration.
func NewScheduler(tracks []Config, cfg SchedulerConfig) (*Scheduler, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	if cfg.MaxConsecutive < 0 {
		return nil, fmt.Errorf("%w: max consecutive trials must be >= 0: %d", ErrInvalidConfig, cfg.MaxConsecutive)
	}

	s := &Scheduler{
		tracks:         make([]*Controller, len(tracks)),
		consecutive:    make([]int, len(tracks)),
		maxConsecutive: cfg.MaxConsecutive,
	}

	for i, tc := range tracks {
		c, err := New(tc)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}

		s.tracks[i] = c
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	s.rng = rand.New(rand.NewSource(seed))

	return s, nil
}

// NumTracks returns the number of interleaved tracks.
func (s *Scheduler) NumTracks() int {
	return len(s.tracks)
}

// Track returns the controller of track i.
func (s *Scheduler) Track(i int) *Controller {
	return s.tracks[i]
}

// Done reports whether every track has terminated.
func (s *Scheduler) Done() bool {
	for _, c := range s.tracks {
		if !c.Done() {
			return false
		}
	}

	return true
}

// Next selects the track for the coming trial and returns its index and
// level. Repeated calls before Update return the same selection. ok is false
// when all tracks are done.
func (s *Scheduler) Next() (track int, level float64, ok bool) {
	if s.Done() {
		return -1, 0, false
	}

	if !s.selected {
		s.choose()
	}

	return s.current, s.tracks[s.current].Level(), true
}

// Update applies a response to the selected track and returns the level the
// track will present next. It panics when called without a pending Next.
func (s *Scheduler) Update(r psychometric.Response) (float64, error) {
	r.MustValid("staircase scheduler")

	if !s.selected {
		panic("staircase scheduler: Update called without a pending Next")
	}

	s.selected = false

	return s.tracks[s.current].Update(r)
}

// Consecutive returns the current run length of track i.
func (s *Scheduler) Consecutive(i int) int {
	return s.consecutive[i]
}

func (s *Scheduler) choose() {
	var candidates []int
	for i, c := range s.tracks {
		if c.Done() {
			continue
		}

		if s.maxConsecutive == 0 || s.consecutive[i] < s.maxConsecutive {
			candidates = append(candidates, i)
		}
	}

	var pick int
	if len(candidates) > 0 {
		pick = candidates[s.rng.Intn(len(candidates))]
	} else {
		pick = s.leastConsecutive()
	}

	for i := range s.consecutive {
		if i != pick {
			s.consecutive[i] = 0
		}
	}

	s.consecutive[pick]++
	s.current = pick
	s.selected = true
}

// leastConsecutive returns the unfinished track with the shortest run,
// lowest index first.
func (s *Scheduler) leastConsecutive() int {
	best := -1
	for i, c := range s.tracks {
		if c.Done() {
			continue
		}

		if best < 0 || s.consecutive[i] < s.consecutive[best] {
			best = i
		}
	}

	return best
}

// Thresholds summarizes each track with the same turnpoint selection.
func (s *Scheduler) Thresholds(avg Average) ([]summary.Summary, error) {
	out := make([]summary.Summary, len(s.tracks))
	for i, c := range s.tracks {
		th, err := c.Threshold(avg)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}

		out[i] = th
	}

	return out, nil
}
