package psychometric

import "math/rand"

// Observer simulates a listener whose responses are Bernoulli draws from a
// known psychometric function.
type Observer struct {
	Params Params
	Family Family

	rng *rand.Rand
}

// NewObserver creates an observer drawing from rng.
func NewObserver(p Params, f Family, rng *rand.Rand) *Observer {
	return &Observer{Params: p, Family: f, rng: rng}
}

// Respond draws one response to stimulus x.
func (o *Observer) Respond(x float64) Response {
	if o.rng.Float64() < Psi(x, o.Params, o.Family) {
		return Correct
	}

	return Incorrect
}
