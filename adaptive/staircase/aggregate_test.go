package staircase

import (
	"math"
	"testing"
)

func TestSelectTurnpoints(t *testing.T) {
	tps := []float64{10, 20, 30, 40, 50, 60, 70}

	tests := []struct {
		name    string
		initial int
		avg     Average
		want    []float64
	}{
		{"after initial", 2, Average{}, []float64{30, 40, 50, 60, 70}},
		{"all even drops earliest", 2, Average{Policy: AverageAllEven}, []float64{40, 50, 60, 70}},
		{"all even already even", 3, Average{Policy: AverageAllEven}, []float64{40, 50, 60, 70}},
		{"first n", 2, Average{Policy: AverageFirstN, N: 2}, []float64{30, 40}},
		{"last n", 2, Average{Policy: AverageLastN, N: 3}, []float64{50, 60, 70}},
		{"last n larger than list", 0, Average{Policy: AverageLastN, N: 20}, tps},
		{"initial beyond list", 9, Average{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTurnpoints(tps, tt.initial, tt.avg)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}

			for k := range got {
				if got[k] != tt.want[k] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestThresholdGeometric(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdaptiveType = Geometric
	cfg.InitialTurnpoints = 1

	tr := Track{Turnpoints: []float64{100, 2, 8}}

	th, err := Threshold(cfg, tr, Average{})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(th.Mean-4) > 1e-12 {
		t.Fatalf("geometric threshold = %v, want 4", th.Mean)
	}
}

func TestThresholdNotAvailable(t *testing.T) {
	cfg := DefaultConfig()

	th, err := Threshold(cfg, Track{Turnpoints: []float64{1, 2}}, Average{})
	if err != nil {
		t.Fatal(err)
	}

	if th.Available() || !math.IsNaN(th.Mean) {
		t.Fatalf("threshold with no qualifying turnpoints = %+v", th)
	}
}

func TestAverageValidate(t *testing.T) {
	if err := (Average{Policy: AverageFirstN}).Validate(); err == nil {
		t.Fatal("first-n without N should fail")
	}

	if err := (Average{Policy: AverageAllEven}).Validate(); err != nil {
		t.Fatalf("all-even error = %v", err)
	}
}
