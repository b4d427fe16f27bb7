package analyzer

import (
	"math"

	"github.com/san-kum/vsmkit/internal/fit"
	"github.com/san-kum/vsmkit/internal/loop"
)

// Estimates are the closed-form values that seeded the fit.
type Estimates struct {
	Ms    float64 `json:"ms"`
	Hc    float64 `json:"hc"`
	Hk    float64 `json:"hk"`
	Slope float64 `json:"slope"`
	Sigma float64 `json:"sigma"`
}

// AxisResult is the analysis of one loop. When Err is set the scalar fields
// are meaningless and Values reports them as unavailable.
type AxisResult struct {
	Axis       loop.Axis
	Ms         float64
	Hc         float64
	Mr         float64
	Squareness float64
	Hk         float64

	// Offset is the field offset removed by centering.
	Offset    float64
	Loop      loop.Loop
	Fit       fit.LoopFit
	Estimates Estimates
	Err       error
}

// Value is one named scalar of an axis result.
type Value struct {
	Name  string
	Value float64
	OK    bool
}

var (
	easyNames = []string{"ms", "hc", "mr", "sqr"}
	hardNames = []string{"ms", "hk"}
)

// Names lists the scalar names reported for an axis.
func Names(axis loop.Axis) []string {
	if axis == loop.Hard {
		return hardNames
	}
	return easyNames
}

func (r *AxisResult) OK() bool { return r != nil && r.Err == nil }

// Values returns the reported scalars in display order.
func (r *AxisResult) Values() []Value {
	var raw []float64
	if r.Axis == loop.Hard {
		raw = []float64{r.Ms, r.Hk}
	} else {
		raw = []float64{r.Ms, r.Hc, r.Mr, r.Squareness}
	}

	names := Names(r.Axis)
	vals := make([]Value, len(names))
	for i, name := range names {
		v := raw[i]
		vals[i] = Value{Name: name, Value: v, OK: r.Err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)}
	}
	return vals
}

// Scalars returns the reported scalars keyed by name; unavailable values
// are nil.
func (r *AxisResult) Scalars() map[string]*float64 {
	out := make(map[string]*float64)
	for _, v := range r.Values() {
		if v.OK {
			x := v.Value
			out[v.Name] = &x
		} else {
			out[v.Name] = nil
		}
	}
	return out
}

// SampleResult holds the analyses of both axes of one sample. An axis that
// was not measured is nil.
type SampleResult struct {
	Name string
	Easy *AxisResult
	Hard *AxisResult
}

// Axis returns the result for axis, or nil.
func (s SampleResult) Axis(axis loop.Axis) *AxisResult {
	if axis == loop.Hard {
		return s.Hard
	}
	return s.Easy
}
