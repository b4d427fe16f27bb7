// Package numeric holds the sampled-curve primitives shared by the loop
// estimators: zero-crossing interpolation and discrete slopes.
package numeric

// ZeroCrossing scans y in order and returns the x at which y first reaches
// zero, interpolated along the secant through the two samples that bracket
// the sign change. A sample with y exactly zero returns its own x. ok is
// false when y never changes sign or the slices are empty.
//
// Steps whose secant is flat are skipped rather than divided through.
func ZeroCrossing(x, y []float64) (float64, bool) {
	n := len(y)
	if len(x) < n {
		n = len(x)
	}
	if n == 0 {
		return 0, false
	}
	if y[0] == 0 {
		return x[0], true
	}

	for k := 1; k < n; k++ {
		if y[k] == 0 {
			return x[k], true
		}
		if y[k]*y[k-1] > 0 {
			continue
		}
		dy := y[k] - y[k-1]
		if dy == 0 {
			continue
		}
		return x[k-1] - y[k-1]*(x[k]-x[k-1])/dy, true
	}
	return 0, false
}

// CrossingIndex returns the index k of the first sample that closes a sign
// change, so the crossing lies in [k-1, k]. It returns -1 when there is none.
func CrossingIndex(y []float64) int {
	if len(y) == 0 {
		return -1
	}
	if y[0] == 0 {
		return 0
	}
	for k := 1; k < len(y); k++ {
		if y[k]*y[k-1] <= 0 && (y[k] == 0 || y[k] != y[k-1]) {
			return k
		}
	}
	return -1
}
