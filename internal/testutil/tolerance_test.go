package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-psych/psychometric"
)

func TestMaxAbsDiff(t *testing.T) {
	a := []float64{1.0, 2.0, 3.0}
	b := []float64{1.0, 2.1, 3.0}

	d, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatalf("MaxAbsDiff error: %v", err)
	}

	if math.Abs(d-0.1) > 1e-15 {
		t.Fatalf("MaxAbsDiff = %v, want 0.1", d)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	_, err := MaxAbsDiff([]float64{1}, []float64{1, 2})
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestListenerMatchesPsi(t *testing.T) {
	p := psychometric.Params{Alpha: 0, Beta: 1, Gamma: 0.5, Lambda: 0}
	l := NewListener(p, psychometric.Logistic, 7)

	const n = 20000
	correct := 0
	for range n {
		if l.Respond(0) == psychometric.Correct {
			correct++
		}
	}

	RequireNearlyEqual(t, "proportion correct", float64(correct)/n, 0.75, 0.02)
}

func TestScriptRepeatsLast(t *testing.T) {
	s := &Script{Responses: []psychometric.Response{psychometric.Correct, psychometric.Incorrect}}

	got := []psychometric.Response{s.Respond(0), s.Respond(0), s.Respond(0)}
	want := []psychometric.Response{psychometric.Correct, psychometric.Incorrect, psychometric.Incorrect}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("response %d = %v, want %v", i, got[i], want[i])
		}
	}
}
