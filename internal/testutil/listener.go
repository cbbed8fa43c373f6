package testutil

import (
	"math/rand"

	"github.com/cwbudde/algo-psych/psychometric"
)

// Listener is a seeded simulated observer.
type Listener = psychometric.Observer

// NewListener creates a listener with a fixed seed for reproducibility.
func NewListener(p psychometric.Params, f psychometric.Family, seed int64) *Listener {
	return psychometric.NewObserver(p, f, rand.New(rand.NewSource(seed)))
}

// Script replays a fixed response sequence, then keeps answering with the
// last element.
type Script struct {
	Responses []psychometric.Response

	pos int
}

// Respond ignores x and returns the next scripted response.
func (s *Script) Respond(float64) psychometric.Response {
	if len(s.Responses) == 0 {
		return psychometric.Incorrect
	}

	if s.pos >= len(s.Responses) {
		return s.Responses[len(s.Responses)-1]
	}

	r := s.Responses[s.pos]
	s.pos++

	return r
}
