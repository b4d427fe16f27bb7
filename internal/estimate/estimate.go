package estimate

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/san-kum/vsmkit/internal/numeric"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultSaturationTolerance = 0.1
	DefaultHkRadius            = 1.0

	spreadSamples = 25
	hkLinePoints  = 100
)

// SaturationBranch averages |M| over the samples whose relative deviation
// from the first moment is below tol.
func SaturationBranch(m []float64, tol float64) (float64, error) {
	if len(m) == 0 {
		return 0, fmt.Errorf("%w: empty branch", loop.ErrInsufficientData)
	}
	m0 := m[0]
	if m0 == 0 {
		return 0, fmt.Errorf("%w: saturation reference moment is zero", loop.ErrInsufficientData)
	}

	flat := make([]float64, 0, len(m))
	for _, mk := range m {
		if math.Abs((mk-m0)/m0) < tol {
			flat = append(flat, mk)
		}
	}
	if len(flat) == 0 {
		return 0, fmt.Errorf("%w: no saturated samples within %.3g", loop.ErrInsufficientData, tol)
	}
	return math.Abs(stat.Mean(flat, nil)), nil
}

// Saturation estimates Ms from both ends of both branches.
func Saturation(l loop.Loop, tol float64) (float64, error) {
	sum := 0.0
	for _, b := range l.Branches() {
		rev := slices.Clone(b.M)
		slices.Reverse(rev)
		for _, m := range [][]float64{b.M, rev} {
			ms, err := SaturationBranch(m, tol)
			if err != nil {
				return 0, &loop.BranchError{Direction: b.Direction, Stage: "saturation", Wrapped: err}
			}
			sum += ms
		}
	}
	return 0.25 * sum, nil
}

// Coercivity is the mean absolute field at which the moment crosses zero.
func Coercivity(l loop.Loop) (float64, error) {
	up, err := loop.FieldCrossing(l.Up)
	if err != nil {
		return 0, err
	}
	down, err := loop.FieldCrossing(l.Down)
	if err != nil {
		return 0, err
	}
	return 0.5 * (math.Abs(up) + math.Abs(down)), nil
}

// Remanence is the mean absolute moment at which the field crosses zero.
func Remanence(l loop.Loop) (float64, error) {
	up, err := loop.MomentCrossing(l.Up)
	if err != nil {
		return 0, err
	}
	down, err := loop.MomentCrossing(l.Down)
	if err != nil {
		return 0, err
	}
	return 0.5 * (math.Abs(up) + math.Abs(down)), nil
}

func Squareness(mr, ms float64) (float64, error) {
	if ms == 0 || math.IsNaN(ms) {
		return 0, fmt.Errorf("%w: squareness with Ms=%v", loop.ErrDegenerateModel, ms)
	}
	return mr / ms, nil
}

// Anisotropy is the first-pass anisotropy field and the mean switching
// slope it was derived from.
type Anisotropy struct {
	Hk    float64
	Slope float64
}

// AnisotropyBranch linearizes one branch around its zero crossing: H is
// shifted so the crossing sits at the origin, samples with |H| < rad are
// kept and Hk = ms / mean(dM/dH). When fewer than two samples fall inside
// the window the two samples bracketing the crossing are used instead.
func AnisotropyBranch(b loop.Branch, rad, ms float64) (Anisotropy, error) {
	zc, err := loop.FieldCrossing(b)
	if err != nil {
		return Anisotropy{}, err
	}
	shifted := b.Shift(zc)

	h, m := numeric.Constrict(shifted.H, shifted.M, rad)
	if len(h) < 2 {
		h, m = bracket(shifted)
	}

	slope, ok := numeric.MeanSlope(h, m)
	if !ok || slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return Anisotropy{}, &loop.BranchError{Direction: b.Direction, Stage: "anisotropy",
			Wrapped: fmt.Errorf("%w: switching slope %v within radius %v", loop.ErrDegenerateModel, slope, rad)}
	}
	return Anisotropy{Hk: ms / slope, Slope: slope}, nil
}

func bracket(b loop.Branch) ([]float64, []float64) {
	k := numeric.CrossingIndex(b.M)
	switch {
	case k < 0 || b.Len() < 2:
		return nil, nil
	case k == 0:
		return b.H[:2], b.M[:2]
	}
	return b.H[k-1 : k+1], b.M[k-1 : k+1]
}

// AnisotropyField averages |Hk| and the slope over both branches.
func AnisotropyField(l loop.Loop, rad, ms float64) (Anisotropy, error) {
	up, err := AnisotropyBranch(l.Up, rad, ms)
	if err != nil {
		return Anisotropy{}, err
	}
	down, err := AnisotropyBranch(l.Down, rad, ms)
	if err != nil {
		return Anisotropy{}, err
	}
	return Anisotropy{
		Hk:    0.5 * (math.Abs(up.Hk) + math.Abs(down.Hk)),
		Slope: 0.5 * (up.Slope + down.Slope),
	}, nil
}

// SaturationSpread is the population standard deviation of |M|-Ms over the
// first samples of each branch, a noise figure for the saturated plateau.
func SaturationSpread(l loop.Loop, ms float64) float64 {
	var dev []float64
	n := min(spreadSamples, l.Up.Len(), l.Down.Len())
	for i := 0; i < n; i++ {
		dev = append(dev, math.Abs(l.Up.M[i])-math.Abs(ms))
		dev = append(dev, math.Abs(l.Down.M[i])-math.Abs(ms))
	}
	if len(dev) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(dev, nil)
	return math.Sqrt(variance)
}

// HkLine samples the extrapolated switching line M = slope*H over
// [-Hk, Hk] for overlay plots.
func HkLine(a Anisotropy) (h, m []float64) {
	h = make([]float64, hkLinePoints)
	floats.Span(h, -a.Hk, a.Hk)
	m = make([]float64, hkLinePoints)
	floats.ScaleTo(m, a.Slope, h)
	return h, m
}
