package report

import (
	"errors"
	"fmt"
	"slices"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var ErrNothingToPlot = errors.New("report: nothing to plot")

// resample interpolates m(h) onto grid. Samples are ordered by field and
// repeated field values keep their first moment.
func resample(h, m, grid []float64) ([]float64, bool) {
	idx := make([]int, len(h))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case h[a] < h[b]:
			return -1
		case h[a] > h[b]:
			return 1
		}
		return 0
	})

	var xs, ys []float64
	for _, i := range idx {
		if len(xs) > 0 && h[i] <= xs[len(xs)-1] {
			continue
		}
		xs = append(xs, h[i])
		ys = append(ys, m[i])
	}
	if len(xs) < 2 {
		return nil, false
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, false
	}
	out := make([]float64, len(grid))
	for i, x := range grid {
		out[i] = pl.Predict(x)
	}
	return out, true
}

// PlotASCII draws both branches and their fits against a common field
// axis of width columns.
func PlotASCII(r *analyzer.AxisResult, caption string, width, height int) (string, error) {
	if !r.OK() {
		return "", fmt.Errorf("%w: %v", ErrNothingToPlot, r.Err)
	}
	if width < 2 {
		width = 80
	}
	if height < 1 {
		height = 15
	}

	hMin := min(floats.Min(r.Loop.Up.H), floats.Min(r.Loop.Down.H))
	hMax := max(floats.Max(r.Loop.Up.H), floats.Max(r.Loop.Down.H))
	if hMin == hMax {
		return "", fmt.Errorf("%w: zero field span", ErrNothingToPlot)
	}
	grid := make([]float64, width)
	floats.Span(grid, hMin, hMax)

	var (
		series  [][]float64
		colors  []asciigraph.AnsiColor
		legends []string
	)
	add := func(b loop.Branch, m []float64, color asciigraph.AnsiColor, legend string) {
		if len(m) != b.Len() {
			return
		}
		if s, ok := resample(b.H, m, grid); ok {
			series = append(series, s)
			colors = append(colors, color)
			legends = append(legends, legend)
		}
	}
	add(r.Loop.Up, r.Loop.Up.M, asciigraph.Default, "up")
	add(r.Loop.Down, r.Loop.Down.M, asciigraph.DarkGray, "down")
	add(r.Loop.Up, r.Fit.Up.Curve, asciigraph.Blue, "fit up")
	add(r.Loop.Down, r.Fit.Down.Curve, asciigraph.Blue, "fit down")
	if len(series) == 0 {
		return "", ErrNothingToPlot
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(fmt.Sprintf("%s  H: %.4g .. %.4g", caption, hMin, hMax)),
	), nil
}
