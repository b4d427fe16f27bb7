package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/vsmkit/internal/estimate"
	"github.com/san-kum/vsmkit/internal/fit"
	"github.com/san-kum/vsmkit/internal/loop"
)

// Options are the tunables of one analysis call.
type Options struct {
	Negate              bool
	HkRadius            float64
	SaturationTolerance float64
	Fit                 fit.Settings
}

func DefaultOptions() Options {
	return Options{
		HkRadius:            estimate.DefaultHkRadius,
		SaturationTolerance: estimate.DefaultSaturationTolerance,
		Fit:                 fit.DefaultSettings(),
	}
}

type Analyzer struct {
	opts   Options
	solver *fit.Solver
}

func New(opts Options) *Analyzer {
	if opts.HkRadius <= 0 {
		opts.HkRadius = estimate.DefaultHkRadius
	}
	if opts.SaturationTolerance <= 0 {
		opts.SaturationTolerance = estimate.DefaultSaturationTolerance
	}
	return &Analyzer{opts: opts, solver: fit.NewSolver(opts.Fit)}
}

func (a *Analyzer) Options() Options { return a.opts }

// AnalyzeRaw analyses a measurement-ordered trace: it applies the moment
// sign option, splits the trace into branches and runs Analyze.
func (a *Analyzer) AnalyzeRaw(ctx context.Context, t loop.Trace, axis loop.Axis) (*AxisResult, error) {
	if !t.IsValid() {
		return failed(axis, loop.ErrInvalidTrace)
	}
	if a.opts.Negate {
		t = t.Negate()
	}
	l, err := loop.Split(t)
	if err != nil {
		return failed(axis, err)
	}
	return a.analyze(ctx, l, axis)
}

// Analyze runs the pipeline on an already split loop.
func (a *Analyzer) Analyze(ctx context.Context, l loop.Loop, axis loop.Axis) (*AxisResult, error) {
	if a.opts.Negate {
		l = loop.Loop{
			Up:   loop.NewBranch(loop.Up, l.Up.Points().Negate()),
			Down: loop.NewBranch(loop.Down, l.Down.Points().Negate()),
		}
	}
	if !l.Up.Points().IsValid() || !l.Down.Points().IsValid() {
		return failed(axis, loop.ErrInvalidTrace)
	}
	return a.analyze(ctx, l, axis)
}

func (a *Analyzer) analyze(ctx context.Context, l loop.Loop, axis loop.Axis) (*AxisResult, error) {
	if err := l.Validate(); err != nil {
		return failed(axis, err)
	}

	centered, offset, err := loop.Center(l)
	if err != nil {
		return failed(axis, fmt.Errorf("center: %w", err))
	}

	ms, err := estimate.Saturation(centered, a.opts.SaturationTolerance)
	if err != nil {
		return failed(axis, fmt.Errorf("estimate: %w", err))
	}
	an, err := estimate.AnisotropyField(centered, a.opts.HkRadius, ms)
	if err != nil {
		return failed(axis, fmt.Errorf("estimate: %w", err))
	}

	res := &AxisResult{
		Axis:   axis,
		Offset: offset,
		Loop:   centered,
		Estimates: Estimates{
			Ms:    ms,
			Hk:    an.Hk,
			Slope: an.Slope,
			Sigma: estimate.SaturationSpread(centered, ms),
		},
	}
	// centering already found both crossings, so this cannot fail
	res.Estimates.Hc, _ = estimate.Coercivity(centered)

	fits, err := a.solver.FitLoop(ctx, centered, fit.Seed(ms, an.Hk))
	if err != nil {
		return failed(axis, err)
	}
	res.Fit = fits
	rec := fit.Reconcile(fits)

	res.Ms = rec.Ms
	if axis == loop.Hard {
		res.Hk = rec.Hk
		return res, nil
	}

	res.Hc = rec.Hc
	if res.Mr, err = estimate.Remanence(centered); err != nil {
		return failed(axis, fmt.Errorf("remanence: %w", err))
	}
	if res.Squareness, err = estimate.Squareness(res.Mr, res.Ms); err != nil {
		return failed(axis, err)
	}
	return res, nil
}

func failed(axis loop.Axis, err error) (*AxisResult, error) {
	err = fmt.Errorf("%s axis: %w", axis, err)
	return &AxisResult{Axis: axis, Err: err}, err
}

// AnalyzeSample analyses every measured axis of a sample concurrently. A
// failure or panic in one axis is recorded on that axis only.
func (a *Analyzer) AnalyzeSample(ctx context.Context, s loop.Sample) SampleResult {
	out := SampleResult{Name: s.Name}
	slots := [2]**AxisResult{&out.Easy, &out.Hard}

	var wg sync.WaitGroup
	for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
		t := s.Trace(axis)
		if t == nil {
			continue
		}
		wg.Add(1)
		go func(axis loop.Axis, t loop.Trace) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					*slots[axis] = &AxisResult{Axis: axis, Err: fmt.Errorf("%s axis: analysis panicked: %v", axis, r)}
				}
			}()
			res, _ := a.AnalyzeRaw(ctx, t, axis)
			*slots[axis] = res
		}(axis, t)
	}
	wg.Wait()

	return out
}
