package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/xuri/excelize/v2"
)

func rampResult(t *testing.T, axis loop.Axis) *analyzer.AxisResult {
	t.Helper()
	l := loop.NewLoop(
		loop.Trace{{H: -10, M: -1e-6}, {H: -5, M: -1e-6}, {H: 0, M: 0}, {H: 5, M: 1e-6}, {H: 10, M: 1e-6}},
		loop.Trace{{H: 10, M: 1e-6}, {H: 5, M: 1e-6}, {H: 0, M: 0}, {H: -5, M: -1e-6}, {H: -10, M: -1e-6}},
	)
	r, err := analyzer.New(analyzer.DefaultOptions()).Analyze(context.Background(), l, axis)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	return r
}

func failedResult(axis loop.Axis) *analyzer.AxisResult {
	return &analyzer.AxisResult{Axis: axis, Err: loop.ErrInsufficientData}
}

func TestEngFormat(t *testing.T) {
	tests := []struct {
		x        float64
		mantissa float64
		exp      int
	}{
		{1234.5, 1.2345, 3},
		{0.000314, 3.14, -4},
		{-1500, -1.5, 3},
		{2.5, 2.5, 0},
		{0, 0, 0},
	}

	for _, tt := range tests {
		m, e := EngFormat(tt.x)
		if e != tt.exp || math.Abs(m-tt.mantissa) > 1e-12 {
			t.Errorf("EngFormat(%v) = (%v, %d), want (%v, %d)", tt.x, m, e, tt.mantissa, tt.exp)
		}
	}
}

func TestFormatEng(t *testing.T) {
	if got := FormatEng(1500); got != "1.5 x10^3" {
		t.Errorf("FormatEng(1500) = %q", got)
	}
	if got := FormatEng(2.5); got != "2.5" {
		t.Errorf("FormatEng(2.5) = %q", got)
	}
}

func TestWriteDelimited(t *testing.T) {
	ok := &analyzer.AxisResult{Axis: loop.Easy, Ms: 1.23456, Hc: 2, Mr: 0.5, Squareness: 0.405}
	rows := []Row{
		{Name: "a.txt", Result: ok},
		{Name: "b.txt", Result: failedResult(loop.Easy)},
		{Name: "c.txt"},
	}

	var buf bytes.Buffer
	if err := WriteDelimited(&buf, loop.Easy, rows, ","); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"file,ms,hc,mr,sqr",
		"a.txt,1.235,2,0.5,0.405",
		"b.txt,n/a,n/a,n/a,n/a",
		"c.txt,n/a,n/a,n/a,n/a",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteDelimited_HardHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDelimited(&buf, loop.Hard, nil, " "); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "file ms hk\n" {
		t.Errorf("unexpected header %q", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, "film", rampResult(t, loop.Easy)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"film (easy axis)", "Ms", "squareness", "sigma", "fit iterations"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteTable(&buf, "film", failedResult(loop.Hard)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "error:") {
		t.Errorf("failed axis should print its error:\n%s", buf.String())
	}
}

func TestPlotASCII(t *testing.T) {
	out, err := PlotASCII(rampResult(t, loop.Hard), "film", 40, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "film") {
		t.Errorf("expected caption in plot:\n%s", out)
	}

	if _, err := PlotASCII(failedResult(loop.Hard), "film", 40, 8); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("expected ErrNothingToPlot, got %v", err)
	}
}

func TestResample(t *testing.T) {
	got, ok := resample([]float64{2, 0, 1, 1}, []float64{20, 0, 10, 99}, []float64{-1, 0.5, 1.5, 3})
	if !ok {
		t.Fatal("expected resample to succeed")
	}
	want := []float64{0, 5, 15, 20}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if _, ok := resample([]float64{1, 1}, []float64{0, 1}, []float64{0}); ok {
		t.Error("expected failure with a single distinct field value")
	}
}

func TestSavePNG(t *testing.T) {
	dir := t.TempDir()
	for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
		path, err := SavePNG(dir, "film-"+axis.String(), rampResult(t, axis))
		if err != nil {
			t.Fatalf("%s: %v", axis, err)
		}
		if filepath.Base(path) != "MHLOOP-film-"+axis.String()+".png" {
			t.Errorf("unexpected path %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("%s is not a PNG", path)
		}
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, "film", rampResult(t, loop.Easy)); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
	if err := WritePNG(&buf, "film", failedResult(loop.Easy)); !errors.Is(err, ErrNothingToPlot) {
		t.Errorf("expected ErrNothingToPlot, got %v", err)
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loops.xlsx")
	samples := []analyzer.SampleResult{
		{Name: "film", Easy: rampResult(t, loop.Easy), Hard: failedResult(loop.Hard)},
		{Name: "disk", Hard: rampResult(t, loop.Hard)},
	}
	if err := WriteWorkbook(path, samples); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("summary")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[2][0] != "film" || rows[2][1] != "hard" || rows[2][8] == "" {
		t.Errorf("failed axis row should carry its error: %v", rows[2])
	}

	curve, err := f.GetRows("film-easy")
	if err != nil {
		t.Fatal(err)
	}
	if len(curve) != 11 {
		t.Errorf("expected header + 10 samples, got %d", len(curve))
	}
	if _, err := f.GetRows("disk-hard"); err != nil {
		t.Errorf("missing disk-hard sheet: %v", err)
	}
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	a := sheetName("a/b:c", used)
	if a != "a_b_c" {
		t.Errorf("unexpected sheet name %q", a)
	}
	if b := sheetName("a/b:c", used); b != "a_b_c~2" {
		t.Errorf("expected unique suffix, got %q", b)
	}
	long := sheetName(strings.Repeat("x", 40), used)
	if len(long) != 31 {
		t.Errorf("sheet name should be truncated to 31, got %d", len(long))
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loops.json")
	samples := []analyzer.SampleResult{
		{Name: "film", Easy: rampResult(t, loop.Easy), Hard: failedResult(loop.Hard)},
	}
	if err := ExportJSON(path, samples); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []ExportSample
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "film" {
		t.Fatalf("unexpected export %+v", got)
	}
	if got[0].Easy == nil || got[0].Easy.Scalars["ms"] == nil || got[0].Easy.Fit == nil {
		t.Fatal("easy axis should carry scalars and fit")
	}
	if len(got[0].Easy.Up) != 5 {
		t.Errorf("expected 5 up samples, got %d", len(got[0].Easy.Up))
	}
	hard := got[0].Hard
	if hard == nil || hard.Error == "" || hard.Scalars["hk"] != nil {
		t.Errorf("hard axis should be a failure with null hk: %+v", hard)
	}
}
