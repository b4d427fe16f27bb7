package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/estimate"
	"github.com/san-kum/vsmkit/internal/loop"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// moments are plotted in micro-emu
const momentScale = 1e6

var (
	plotWidth  = 5 * vg.Inch
	plotHeight = 4 * vg.Inch

	dataColor    = color.Black
	fitColor     = color.RGBA{B: 255, A: 255}
	overlayColor = color.RGBA{R: 40, G: 120, B: 255, A: 255}
	markColor    = color.RGBA{R: 220, A: 255}
)

func PNGName(name string) string {
	return fmt.Sprintf("MHLOOP-%s.png", name)
}

func xys(h, m []float64) plotter.XYs {
	pts := make(plotter.XYs, len(h))
	for i := range h {
		pts[i] = plotter.XY{X: h[i], Y: m[i] * momentScale}
	}
	return pts
}

func dashed(l *plotter.Line) {
	l.LineStyle.Color = overlayColor
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
}

func buildPlot(name string, r *analyzer.AxisResult) (*plot.Plot, error) {
	if !r.OK() {
		return nil, fmt.Errorf("%w: %v", ErrNothingToPlot, r.Err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s axis M-H loop of %s", r.Axis, name)
	p.X.Label.Text = "field (Oe)"
	p.Y.Label.Text = "moment (µemu)"
	p.Add(plotter.NewGrid())

	for i, b := range r.Loop.Branches() {
		s, err := plotter.NewScatter(xys(b.H, b.M))
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = dataColor
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)

		fits := r.Fit.Branches()
		if len(fits[i].Curve) != b.Len() {
			continue
		}
		l, err := plotter.NewLine(xys(b.H, fits[i].Curve))
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = fitColor
		p.Add(l)
		if i == 0 {
			p.Legend.Add("data", s)
			p.Legend.Add("fit", l)
		}
	}

	var err error
	if r.Axis == loop.Hard {
		err = addHardOverlay(p, r)
	} else {
		err = addEasyOverlay(p, r)
	}
	if err != nil {
		return nil, err
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// addEasyOverlay draws the ideal square loop at +-Hc, +-Ms and marks Mr.
func addEasyOverlay(p *plot.Plot, r *analyzer.AxisResult) error {
	hc, ms := r.Hc, r.Ms
	square, err := plotter.NewLine(xys(
		[]float64{-hc, hc, hc, -hc, -hc},
		[]float64{-ms, -ms, ms, ms, -ms},
	))
	if err != nil {
		return err
	}
	dashed(square)

	mr, err := plotter.NewScatter(xys([]float64{0, 0}, []float64{r.Mr, -r.Mr}))
	if err != nil {
		return err
	}
	mr.GlyphStyle.Color = markColor
	mr.GlyphStyle.Radius = vg.Points(3)
	mr.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(square, mr)
	p.Legend.Add("ideal (sqr=1) loop", square)
	p.Legend.Add("mr", mr)
	return nil
}

// addHardOverlay draws the first-pass Hk extrapolation line and the
// saturation plateaus beyond it.
func addHardOverlay(p *plot.Plot, r *analyzer.AxisResult) error {
	a := estimate.Anisotropy{Hk: r.Estimates.Hk, Slope: r.Estimates.Slope}
	hLine, mLine := estimate.HkLine(a)
	ext, err := plotter.NewLine(xys(hLine, mLine))
	if err != nil {
		return err
	}
	dashed(ext)
	p.Add(ext)
	p.Legend.Add("hk extrapolation", ext)

	up := r.Loop.Up
	hMin, hMax := floats.Min(up.H), floats.Max(up.H)
	ms0 := math.Copysign(r.Ms, up.M[0])
	ms1 := math.Copysign(r.Ms, up.M[up.Len()-1])
	for _, seg := range [][4]float64{{hMin, -a.Hk, ms0, ms0}, {a.Hk, hMax, ms1, ms1}} {
		if seg[0] >= seg[1] {
			continue
		}
		l, err := plotter.NewLine(xys(seg[:2], seg[2:]))
		if err != nil {
			return err
		}
		dashed(l)
		p.Add(l)
	}
	return nil
}

// SavePNG writes the loop plot to dir/MHLOOP-<name>.png and returns the
// path.
func SavePNG(dir, name string, r *analyzer.AxisResult) (string, error) {
	p, err := buildPlot(name, r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, PNGName(name))
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return "", err
	}
	return path, nil
}

// WritePNG streams the loop plot as PNG.
func WritePNG(w io.Writer, name string, r *analyzer.AxisResult) error {
	p, err := buildPlot(name, r)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
