package loop

import (
	"fmt"

	"github.com/san-kum/vsmkit/internal/numeric"
)

// Split separates a trace into its up and down sweeps. Sample k (k >= 1)
// goes to the up branch when H[k]-H[k-1] > 0 and to the down branch
// otherwise. The first sample has no predecessor and is never assigned.
func Split(t Trace) (Loop, error) {
	var up, down Trace
	for k := 1; k < len(t); k++ {
		if t[k].H-t[k-1].H > 0 {
			up = append(up, t[k])
		} else {
			down = append(down, t[k])
		}
	}

	l := NewLoop(up, down)
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("split %d samples: %w", len(t), err)
	}
	return l, nil
}

// Center removes the instrumental field offset: the mean of the two
// branches' H-vs-M zero crossings is subtracted from every field value.
func Center(l Loop) (Loop, float64, error) {
	zcUp, err := FieldCrossing(l.Up)
	if err != nil {
		return l, 0, err
	}
	zcDown, err := FieldCrossing(l.Down)
	if err != nil {
		return l, 0, err
	}

	offset := 0.5 * (zcUp + zcDown)
	return Loop{Up: l.Up.Shift(offset), Down: l.Down.Shift(offset)}, offset, nil
}

// FieldCrossing returns the field at which the branch moment crosses zero.
func FieldCrossing(b Branch) (float64, error) {
	h, ok := numeric.ZeroCrossing(b.H, b.M)
	if !ok {
		return 0, &BranchError{Direction: b.Direction, Stage: "field crossing", Wrapped: ErrNoCrossing}
	}
	return h, nil
}

// MomentCrossing returns the moment at which the branch field crosses zero.
func MomentCrossing(b Branch) (float64, error) {
	m, ok := numeric.ZeroCrossing(b.M, b.H)
	if !ok {
		return 0, &BranchError{Direction: b.Direction, Stage: "moment crossing", Wrapped: ErrNoCrossing}
	}
	return m, nil
}
