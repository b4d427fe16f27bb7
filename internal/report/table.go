package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
)

const NotAvailable = "n/a"

// Row is one named analysis in a batch listing. A nil Result prints as
// unavailable.
type Row struct {
	Name   string
	Result *analyzer.AxisResult
}

// Header is the batch header line for an axis.
func Header(axis loop.Axis) []string {
	return append([]string{"file"}, analyzer.Names(axis)...)
}

func FormatValue(v analyzer.Value) string {
	if !v.OK {
		return NotAvailable
	}
	return fmt.Sprintf("%.4g", v.Value)
}

func values(axis loop.Axis, r *analyzer.AxisResult) []analyzer.Value {
	if r != nil {
		return r.Values()
	}
	names := analyzer.Names(axis)
	vals := make([]analyzer.Value, len(names))
	for i, name := range names {
		vals[i] = analyzer.Value{Name: name}
	}
	return vals
}

// WriteDelimited writes the header line and one row per analysis, values
// with four significant digits.
func WriteDelimited(w io.Writer, axis loop.Axis, rows []Row, delim string) error {
	if _, err := fmt.Fprintln(w, strings.Join(Header(axis), delim)); err != nil {
		return err
	}
	for _, row := range rows {
		fields := []string{row.Name}
		for _, v := range values(axis, row.Result) {
			fields = append(fields, FormatValue(v))
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, delim)); err != nil {
			return err
		}
	}
	return nil
}

// EngFormat splits x into a mantissa and the power of ten nearest to its
// magnitude, so x = mantissa * 10^exp.
func EngFormat(x float64) (float64, int) {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x, 0
	}
	exp := int(math.Round(math.Log10(math.Abs(x))))
	return x / math.Pow10(exp), exp
}

// FormatEng renders x as "mantissa x10^exp".
func FormatEng(x float64) string {
	mantissa, exp := EngFormat(x)
	if exp == 0 {
		return fmt.Sprintf("%.4g", mantissa)
	}
	return fmt.Sprintf("%.4g x10^%d", mantissa, exp)
}

var labels = map[string]string{
	"ms":  "Ms",
	"hc":  "Hc",
	"mr":  "Mr",
	"sqr": "squareness",
	"hk":  "Hk",
}

// WriteTable writes a human-readable summary of one axis analysis.
func WriteTable(w io.Writer, name string, r *analyzer.AxisResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (%s axis)\n", name, r.Axis)

	if !r.OK() {
		fmt.Fprintf(tw, "error:\t%v\n", r.Err)
		return tw.Flush()
	}

	fmt.Fprintln(tw, "QUANTITY\tVALUE")
	for _, v := range r.Values() {
		val := NotAvailable
		if v.OK {
			val = FormatEng(v.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\n", labels[v.Name], val)
	}

	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "ESTIMATE\tVALUE")
	fmt.Fprintf(tw, "field offset\t%s\n", FormatEng(r.Offset))
	fmt.Fprintf(tw, "Ms (plateau)\t%s\n", FormatEng(r.Estimates.Ms))
	fmt.Fprintf(tw, "Hc (crossing)\t%s\n", FormatEng(r.Estimates.Hc))
	fmt.Fprintf(tw, "Hk (slope)\t%s\n", FormatEng(r.Estimates.Hk))
	fmt.Fprintf(tw, "sigma\t%s\n", FormatEng(r.Estimates.Sigma))
	fmt.Fprintf(tw, "fit iterations\t%d / %d\n", r.Fit.Up.Iterations, r.Fit.Down.Iterations)

	return tw.Flush()
}
