package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/fit"
	"github.com/san-kum/vsmkit/internal/loop"
)

type ExportAxis struct {
	Axis      string              `json:"axis"`
	Scalars   map[string]*float64 `json:"scalars"`
	Offset    float64             `json:"offset"`
	Estimates *analyzer.Estimates `json:"estimates,omitempty"`
	Fit       *fit.LoopFit        `json:"fit,omitempty"`
	Up        loop.Trace          `json:"up,omitempty"`
	Down      loop.Trace          `json:"down,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type ExportSample struct {
	Name string      `json:"name"`
	Easy *ExportAxis `json:"easy,omitempty"`
	Hard *ExportAxis `json:"hard,omitempty"`
}

func NewExportAxis(r *analyzer.AxisResult) *ExportAxis {
	if r == nil {
		return nil
	}
	out := &ExportAxis{Axis: r.Axis.String(), Scalars: r.Scalars()}
	if !r.OK() {
		out.Error = r.Err.Error()
		return out
	}
	est, fits := r.Estimates, r.Fit
	out.Offset = r.Offset
	out.Estimates = &est
	out.Fit = &fits
	out.Up = r.Loop.Up.Points()
	out.Down = r.Loop.Down.Points()
	return out
}

func NewExportSample(s analyzer.SampleResult) ExportSample {
	return ExportSample{
		Name: s.Name,
		Easy: NewExportAxis(s.Easy),
		Hard: NewExportAxis(s.Hard),
	}
}

// EncodeJSON writes the samples as an indented JSON array.
func EncodeJSON(w io.Writer, samples []analyzer.SampleResult) error {
	data := make([]ExportSample, len(samples))
	for i, s := range samples {
		data[i] = NewExportSample(s)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, samples []analyzer.SampleResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := EncodeJSON(file, samples); err != nil {
		return err
	}
	return file.Close()
}
