// Package fit fits the three-segment switching model to loop branches.
//
// The model is a piecewise-linear saturating curve of the reduced field
// u = H - Hsw:
//
//	u < -Hk    M = Moffset - Ms
//	|u| <= Hk  M = Moffset + Ms*u/Hk
//	u > Hk     M = Moffset + Ms
//
// Each branch is fitted on its own by Levenberg-Marquardt least squares
// ([Solver]); [Reconcile] merges the two branch fits into single Ms, Hk
// and Hc values.
package fit

import (
	"fmt"
	"math"

	"github.com/san-kum/vsmkit/internal/loop"
)

const numParams = 4

// Params are the switching-model parameters of one branch.
type Params struct {
	Ms      float64 `json:"ms"`
	Hsw     float64 `json:"hsw"`
	Hk      float64 `json:"hk"`
	Moffset float64 `json:"moffset"`
}

func (p Params) vector() []float64 {
	return []float64{p.Ms, p.Hsw, p.Hk, p.Moffset}
}

func paramsOf(v []float64) Params {
	return Params{Ms: v[0], Hsw: v[1], Hk: v[2], Moffset: v[3]}
}

// Validate reports ErrDegenerateModel for a zero-width or non-finite
// switching region and for non-finite parameters.
func (p Params) Validate() error {
	for _, v := range p.vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite parameter in %+v", loop.ErrDegenerateModel, p)
		}
	}
	if p.Hk <= 0 {
		return fmt.Errorf("%w: switching half-width Hk=%v", loop.ErrDegenerateModel, p.Hk)
	}
	return nil
}

// Eval returns the model moment at field h.
func Eval(h float64, p Params) float64 {
	u := h - p.Hsw
	switch {
	case u < -p.Hk:
		return p.Moffset - p.Ms
	case u > p.Hk:
		return p.Moffset + p.Ms
	}
	return p.Moffset + p.Ms*u/p.Hk
}

// Curve evaluates the model at every field value.
func Curve(h []float64, p Params) []float64 {
	m := make([]float64, len(h))
	for i, hi := range h {
		m[i] = Eval(hi, p)
	}
	return m
}

// Jacobian fills row with the partial derivatives of the model at h with
// respect to (Ms, Hsw, Hk, Moffset).
func Jacobian(h float64, p Params, row []float64) {
	u := h - p.Hsw
	row[3] = 1
	switch {
	case u < -p.Hk:
		row[0], row[1], row[2] = -1, 0, 0
	case u > p.Hk:
		row[0], row[1], row[2] = 1, 0, 0
	default:
		row[0] = u / p.Hk
		row[1] = -p.Ms / p.Hk
		row[2] = -p.Ms * u / (p.Hk * p.Hk)
	}
}
