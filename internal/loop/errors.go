package loop

import (
	"errors"
	"fmt"
)

// Domain errors for loop analysis.
var (
	// ErrInsufficientData indicates a branch too short to analyse or a curve
	// that never changes sign.
	ErrInsufficientData = errors.New("loop: insufficient data")

	// ErrNoCrossing indicates a zero-crossing search found no sign change.
	ErrNoCrossing = fmt.Errorf("%w: no zero crossing", ErrInsufficientData)

	// ErrDegenerateModel indicates switching-model parameters that make the
	// model ill-posed, such as a zero-width linear region.
	ErrDegenerateModel = errors.New("loop: degenerate switching model")

	// ErrFitNonConvergence indicates the optimizer ran out of iterations.
	ErrFitNonConvergence = errors.New("loop: fit did not converge")

	// ErrInvalidTrace indicates NaN or Inf readings in a trace.
	ErrInvalidTrace = errors.New("loop: invalid trace (NaN or Inf detected)")
)

// BranchError wraps an error with the branch and stage it came from.
type BranchError struct {
	Direction Direction
	Stage     string
	Wrapped   error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("%s branch: %s: %v", e.Direction, e.Stage, e.Wrapped)
}

func (e *BranchError) Unwrap() error {
	return e.Wrapped
}
