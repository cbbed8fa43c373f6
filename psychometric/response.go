package psychometric

import "fmt"

// Response is the outcome of one trial: 1 = correct/yes, 0 = incorrect/no.
type Response int

const (
	Incorrect Response = 0
	Correct   Response = 1
)

// Valid reports whether r is Correct or Incorrect.
func (r Response) Valid() bool {
	return r == Correct || r == Incorrect
}

// MustValid panics if r is not a valid response. Engines call it at the top
// of every update so a bad value never reaches their state.
func (r Response) MustValid(owner string) {
	if !r.Valid() {
		panic(fmt.Sprintf("%s: invalid response %d (want 0 or 1)", owner, int(r)))
	}
}

// String returns "correct" or "incorrect".
func (r Response) String() string {
	switch r {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return fmt.Sprintf("Response(%d)", int(r))
	}
}
