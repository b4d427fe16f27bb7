package fit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/vsmkit/internal/loop"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Settings bound the Levenberg-Marquardt iteration.
type Settings struct {
	MaxIterations  int     `yaml:"max_iterations" json:"max_iterations"`
	Ftol           float64 `yaml:"ftol" json:"ftol"`
	Xtol           float64 `yaml:"xtol" json:"xtol"`
	Gtol           float64 `yaml:"gtol" json:"gtol"`
	InitialDamping float64 `yaml:"initial_damping" json:"initial_damping"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations:  200,
		Ftol:           1e-10,
		Xtol:           1e-10,
		Gtol:           1e-12,
		InitialDamping: 1e-3,
	}
}

const (
	minDamping  = 1e-12
	maxDamping  = 1e16
	dampingStep = 10.0
	minDiagonal = 1e-12
)

// Stats describes how a minimization ended.
type Stats struct {
	Iterations int
	Cost       float64
}

// Solver minimizes the sum of squared residuals between observed moments
// and the switching model.
type Solver struct {
	settings Settings
}

func NewSolver(s Settings) *Solver {
	d := DefaultSettings()
	if s.MaxIterations <= 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.Ftol <= 0 {
		s.Ftol = d.Ftol
	}
	if s.Xtol <= 0 {
		s.Xtol = d.Xtol
	}
	if s.Gtol < 0 {
		s.Gtol = d.Gtol
	}
	if s.InitialDamping <= 0 {
		s.InitialDamping = d.InitialDamping
	}
	return &Solver{settings: s}
}

// Minimize fits the model to (h, m) starting from seed.
func (s *Solver) Minimize(ctx context.Context, h, m []float64, seed Params) (Params, Stats, error) {
	if len(h) != len(m) || len(h) < 2 {
		return seed, Stats{}, fmt.Errorf("%w: %d samples", loop.ErrInsufficientData, len(h))
	}
	if err := seed.Validate(); err != nil {
		return seed, Stats{}, err
	}

	n := len(h)
	p := seed.vector()
	r := make([]float64, n)
	cost := residuals(h, m, paramsOf(p), r)

	J := mat.NewDense(n, numParams, nil)
	row := make([]float64, numParams)
	lambda := s.settings.InitialDamping
	stats := Stats{Cost: cost}

	for iter := 0; iter < s.settings.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return paramsOf(p), stats, ctx.Err()
		default:
		}

		stats.Iterations = iter
		if cost == 0 {
			return paramsOf(p), stats, nil
		}

		cur := paramsOf(p)
		for i, hi := range h {
			Jacobian(hi, cur, row)
			J.SetRow(i, row)
		}

		var A mat.Dense
		A.Mul(J.T(), J)
		var g mat.VecDense
		g.MulVec(J.T(), mat.NewVecDense(n, r))

		if mat.Norm(&g, math.Inf(1)) <= s.settings.Gtol {
			return cur, stats, nil
		}

		pNew := make([]float64, numParams)
		rNew := make([]float64, n)
		for {
			step, err := dampedStep(&A, &g, lambda)
			if err != nil {
				lambda *= dampingStep
				if lambda > maxDamping {
					return cur, stats, fmt.Errorf("%w: normal equations singular: %v", loop.ErrFitNonConvergence, err)
				}
				continue
			}

			floats.AddTo(pNew, p, step)
			small := floats.Norm(step, 2) <= s.settings.Xtol*(floats.Norm(p, 2)+s.settings.Xtol)

			if paramsOf(pNew).Validate() == nil {
				costNew := residuals(h, m, paramsOf(pNew), rNew)
				if costNew < cost {
					reduction := cost - costNew
					copy(p, pNew)
					copy(r, rNew)
					cost = costNew
					stats.Cost = cost
					stats.Iterations = iter + 1
					// relative reduction is only meaningful for near Gauss-Newton steps
					if small || (lambda <= s.settings.InitialDamping && reduction <= s.settings.Ftol*(cost+reduction)) {
						return paramsOf(p), stats, nil
					}
					lambda = math.Max(lambda/dampingStep, minDamping)
					break
				}
			}

			// No descent along a vanishing step: p is stationary.
			if small {
				return cur, stats, nil
			}
			lambda *= dampingStep
			if lambda > maxDamping {
				return cur, stats, nil
			}
		}
	}

	return paramsOf(p), stats, fmt.Errorf("%w after %d iterations (cost %.3g)",
		loop.ErrFitNonConvergence, s.settings.MaxIterations, cost)
}

// dampedStep solves (A + lambda*diag(A)) x = g.
func dampedStep(A *mat.Dense, g *mat.VecDense, lambda float64) ([]float64, error) {
	var D mat.Dense
	D.CloneFrom(A)
	for i := 0; i < numParams; i++ {
		d := A.At(i, i)
		D.Set(i, i, d+lambda*math.Max(d, minDiagonal))
	}

	var x mat.VecDense
	if err := x.SolveVec(&D, g); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	step := make([]float64, numParams)
	for i := range step {
		step[i] = x.AtVec(i)
	}
	if !floats.HasNaN(step) && isFinite(step) {
		return step, nil
	}
	return nil, errors.New("non-finite step")
}

func isFinite(v []float64) bool {
	for _, x := range v {
		if math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// residuals writes m - model(h) into r and returns the squared norm.
func residuals(h, m []float64, p Params, r []float64) float64 {
	for i, hi := range h {
		r[i] = m[i] - Eval(hi, p)
	}
	return floats.Dot(r, r)
}
