package summary

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-12

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantSD   float64
	}{
		{"alternating", []float64{44, 46, 44, 46}, 45, math.Sqrt(4.0 / 3.0)},
		{"constant", []float64{3, 3, 3}, 3, 0},
		{"ramp", []float64{1, 2, 3, 4, 5}, 3, math.Sqrt(2.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Calculate(tt.values)
			if s.N != len(tt.values) {
				t.Fatalf("N = %d, want %d", s.N, len(tt.values))
			}

			if math.Abs(s.Mean-tt.wantMean) > tolerance {
				t.Errorf("Mean = %v, want %v", s.Mean, tt.wantMean)
			}

			if math.Abs(s.SD-tt.wantSD) > tolerance {
				t.Errorf("SD = %v, want %v", s.SD, tt.wantSD)
			}
		})
	}
}

func TestCalculateEmptyAndSingle(t *testing.T) {
	s := Calculate(nil)
	if s.Available() || !math.IsNaN(s.Mean) {
		t.Fatalf("empty summary = %+v", s)
	}

	s = Calculate([]float64{7})
	if s.Mean != 7 || !math.IsNaN(s.SD) {
		t.Fatalf("single-value summary = %+v", s)
	}
}

func TestGeometric(t *testing.T) {
	s, err := Geometric([]float64{2, -8})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(s.Mean-4) > tolerance {
		t.Errorf("geometric mean = %v, want 4", s.Mean)
	}

	wantSD := math.Exp(math.Sqrt(2) * math.Log(2))
	if math.Abs(s.SD-wantSD) > 1e-9 {
		t.Errorf("geometric SD = %v, want %v", s.SD, wantSD)
	}

	if _, err := Geometric([]float64{1, 0}); !errors.Is(err, ErrNonPositive) {
		t.Fatalf("Geometric with zero error = %v", err)
	}
}

func TestRunningMatchesCalculate(t *testing.T) {
	values := []float64{3.5, -1, 12, 0.25, 8}

	r := NewRunning()
	for _, v := range values {
		r.Update(v)
	}

	got := r.Result()
	want := Calculate(values)

	if got != want {
		t.Fatalf("Running = %+v, Calculate = %+v", got, want)
	}

	r.Reset()
	if r.Result().Available() {
		t.Fatal("Reset did not clear the accumulator")
	}
}
