package numeric

import (
	"math"
	"testing"
)

func TestZeroCrossing(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want float64
		ok   bool
	}{
		{"interpolated", []float64{0, 1, 2, 3}, []float64{-3, -1, 1, 3}, 1.5, true},
		{"exact at sample", []float64{-2, -1, 0, 1}, []float64{-2, -1, 0, 1}, 0, true},
		{"exact at first sample", []float64{4, 5, 6}, []float64{0, 1, 2}, 4, true},
		{"falling", []float64{0, 10}, []float64{2, -2}, 5, true},
		{"crossing at minus one", []float64{-2, 0}, []float64{-1, 1}, -1, true},
		{"no sign change", []float64{0, 1, 2}, []float64{1, 2, 3}, 0, false},
		{"empty", nil, nil, 0, false},
		{"single non-zero", []float64{3}, []float64{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ZeroCrossing(tt.x, tt.y)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ZeroCrossing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZeroCrossing_ExactSampleIsNotInterpolated(t *testing.T) {
	x := []float64{0.1, 0.7, 1.3, 1.9}
	y := []float64{-0.3, -0.1, 0, 0.4}

	got, ok := ZeroCrossing(x, y)
	if !ok {
		t.Fatal("expected crossing")
	}
	if got != 1.3 {
		t.Errorf("expected exactly 1.3, got %.17g", got)
	}
}

func TestCrossingIndex(t *testing.T) {
	if k := CrossingIndex([]float64{-1, -0.5, 0.5}); k != 2 {
		t.Errorf("expected 2, got %d", k)
	}
	if k := CrossingIndex([]float64{0, 1}); k != 0 {
		t.Errorf("expected 0, got %d", k)
	}
	if k := CrossingIndex([]float64{1, 2}); k != -1 {
		t.Errorf("expected -1, got %d", k)
	}
}

func TestDerivative(t *testing.T) {
	d := Derivative([]float64{0, 1, 1, 3}, []float64{0, 2, 5, 9})
	want := []float64{2, 0, 2}
	if len(d) != len(want) {
		t.Fatalf("expected %d slopes, got %d", len(want), len(d))
	}
	for i := range want {
		if d[i] != want[i] {
			t.Errorf("slope %d: got %v, want %v", i, d[i], want[i])
		}
	}

	if Derivative([]float64{1}, []float64{1}) != nil {
		t.Error("expected nil for a single sample")
	}
}

func TestConstrict(t *testing.T) {
	x, y := Constrict([]float64{-2, -1, -0.5, 0, 0.5, 1, 2}, []float64{1, 2, 3, 4, 5, 6, 7}, 1)
	if len(x) != 3 || len(y) != 3 {
		t.Fatalf("expected 3 samples inside the open window, got %d", len(x))
	}
	if y[0] != 3 || y[2] != 5 {
		t.Errorf("unexpected samples kept: %v", y)
	}
}

func TestMeanSlope(t *testing.T) {
	s, ok := MeanSlope([]float64{-1, 0, 1}, []float64{-2, 0, 2})
	if !ok || s != 2 {
		t.Errorf("MeanSlope() = %v, %v; want 2, true", s, ok)
	}
	if _, ok := MeanSlope([]float64{0}, []float64{0}); ok {
		t.Error("expected ok=false for a single sample")
	}
}
