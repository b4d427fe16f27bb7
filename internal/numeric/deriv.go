package numeric

import "math"

// Derivative returns the forward difference quotients dy/dx between
// consecutive samples; the result has len(x)-1 entries. A zero field step
// contributes a zero slope.
func Derivative(x, y []float64) []float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return nil
	}
	d := make([]float64, n-1)
	for k := 1; k < n; k++ {
		dx := x[k] - x[k-1]
		if dx != 0 {
			d[k-1] = (y[k] - y[k-1]) / dx
		}
	}
	return d
}

// Constrict keeps the samples whose x lies strictly inside (-rad, rad).
func Constrict(x, y []float64, rad float64) ([]float64, []float64) {
	var rx, ry []float64
	for k := range x {
		if k >= len(y) {
			break
		}
		if math.Abs(x[k]) < rad {
			rx = append(rx, x[k])
			ry = append(ry, y[k])
		}
	}
	return rx, ry
}

// MeanSlope averages the discrete slopes of y over x. ok is false when
// fewer than two samples are given.
func MeanSlope(x, y []float64) (float64, bool) {
	d := Derivative(x, y)
	if len(d) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range d {
		sum += v
	}
	return sum / float64(len(d)), true
}
