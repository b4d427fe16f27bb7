package fit

import (
	"context"
	"math"

	"github.com/san-kum/vsmkit/internal/loop"
)

// Result is the fit of one branch: its parameters and the model evaluated
// at the branch's own field samples.
type Result struct {
	Params     Params    `json:"params"`
	Curve      []float64 `json:"curve"`
	Iterations int       `json:"iterations"`
	Cost       float64   `json:"cost"`
}

// LoopFit holds the independent fits of both branches.
type LoopFit struct {
	Up   Result `json:"up"`
	Down Result `json:"down"`
}

// Branches returns the up and down results in loop.Loop.Branches order.
func (f LoopFit) Branches() [2]Result {
	return [2]Result{f.Up, f.Down}
}

// Reconciled are the loop-level values derived from the two branch fits.
type Reconciled struct {
	Ms float64
	Hk float64
	Hc float64
}

// Seed builds the initial guess used for both branches.
func Seed(ms, hk float64) Params {
	return Params{Ms: ms, Hsw: 0, Hk: hk, Moffset: 0}
}

// FitBranch fits the switching model to one branch.
func (s *Solver) FitBranch(ctx context.Context, b loop.Branch, seed Params) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	p, stats, err := s.Minimize(ctx, b.H, b.M, seed)
	if err != nil {
		return Result{}, &loop.BranchError{Direction: b.Direction, Stage: "fit", Wrapped: err}
	}
	return Result{
		Params:     p,
		Curve:      Curve(b.H, p),
		Iterations: stats.Iterations,
		Cost:       stats.Cost,
	}, nil
}

// FitLoop fits both branches from the same seed.
func (s *Solver) FitLoop(ctx context.Context, l loop.Loop, seed Params) (LoopFit, error) {
	up, err := s.FitBranch(ctx, l.Up, seed)
	if err != nil {
		return LoopFit{}, err
	}
	down, err := s.FitBranch(ctx, l.Down, seed)
	if err != nil {
		return LoopFit{}, err
	}
	return LoopFit{Up: up, Down: down}, nil
}

// Reconcile averages Ms and Hk over the branches; Hc is half the distance
// between the two switching fields.
func Reconcile(f LoopFit) Reconciled {
	up, down := f.Up.Params, f.Down.Params
	return Reconciled{
		Ms: 0.5 * (up.Ms + down.Ms),
		Hk: 0.5 * (up.Hk + down.Hk),
		Hc: 0.5 * math.Abs(up.Hsw-down.Hsw),
	}
}
