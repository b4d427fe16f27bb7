package report

import (
	"fmt"
	"strings"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "summary"
	maxSheetName  = 31
	invalidInName = `[]:*?/\`
)

var summaryHeader = []interface{}{"sample", "axis", "ms", "hc", "mr", "sqr", "hk", "offset", "error"}

func sheetName(s string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidInName, r) {
			return '_'
		}
		return r
	}, s)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		name = base[:min(len(base), maxSheetName-len(suffix))] + suffix
	}
	used[name] = true
	return name
}

func summaryRow(sample string, r *analyzer.AxisResult) []interface{} {
	row := []interface{}{sample, r.Axis.String()}
	scalars := r.Scalars()
	for _, name := range []string{"ms", "hc", "mr", "sqr", "hk"} {
		if v := scalars[name]; v != nil {
			row = append(row, *v)
		} else {
			row = append(row, nil)
		}
	}
	if r.OK() {
		return append(row, r.Offset, nil)
	}
	return append(row, nil, r.Err.Error())
}

func writeCurveSheet(f *excelize.File, sheet string, r *analyzer.AxisResult) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []interface{}{"branch", "field (Oe)", "moment", "fit"}); err != nil {
		return err
	}

	row := 2
	fits := r.Fit.Branches()
	for i, b := range r.Loop.Branches() {
		for k := range b.H {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			vals := []interface{}{b.Direction.String(), b.H[k], b.M[k], nil}
			if k < len(fits[i].Curve) {
				vals[3] = fits[i].Curve[k]
			}
			if err := sw.SetRow(cell, vals); err != nil {
				return err
			}
			row++
		}
	}
	return sw.Flush()
}

// WriteWorkbook saves a summary sheet with one row per analysed axis and
// one curve sheet per successful axis.
func WriteWorkbook(path string, samples []analyzer.SampleResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(summarySheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", summaryHeader); err != nil {
		return err
	}

	used := map[string]bool{summarySheet: true}
	type curve struct {
		sheet string
		r     *analyzer.AxisResult
	}
	var curves []curve

	row := 2
	for _, s := range samples {
		for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
			r := s.Axis(axis)
			if r == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, summaryRow(s.Name, r)); err != nil {
				return err
			}
			row++
			if r.OK() {
				curves = append(curves, curve{sheet: sheetName(s.Name+"-"+axis.String(), used), r: r})
			}
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	for _, c := range curves {
		if err := writeCurveSheet(f, c.sheet, c.r); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
