package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/fit"
	"github.com/san-kum/vsmkit/internal/loop"
)

const (
	metadataFile = "metadata.json"
	curvesFile   = "curves.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Settings records the analysis options a run was produced with.
type Settings struct {
	Negate              bool         `json:"negate"`
	HkRadius            float64      `json:"hk_radius"`
	SaturationTolerance float64      `json:"saturation_tolerance"`
	Fit                 fit.Settings `json:"fit"`
}

// AxisRecord is the stored analysis of one axis. Unavailable scalars are
// stored as null.
type AxisRecord struct {
	Axis      string              `json:"axis"`
	Scalars   map[string]*float64 `json:"scalars"`
	Offset    float64             `json:"offset"`
	Estimates analyzer.Estimates  `json:"estimates"`
	Up        fit.Params          `json:"up_fit"`
	Down      fit.Params          `json:"down_fit"`
	Error     string              `json:"error,omitempty"`
}

type RunMetadata struct {
	ID        string       `json:"id"`
	Sample    string       `json:"sample"`
	Source    []string     `json:"source,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Settings  Settings     `json:"settings"`
	Axes      []AxisRecord `json:"axes"`
}

// Axis returns the record for the named axis, or nil.
func (m *RunMetadata) Axis(axis loop.Axis) *AxisRecord {
	for i := range m.Axes {
		if m.Axes[i].Axis == axis.String() {
			return &m.Axes[i]
		}
	}
	return nil
}

// Curve is one stored branch: centered samples and the fitted moments.
type Curve struct {
	Axis      loop.Axis
	Direction loop.Direction
	H         []float64
	M         []float64
	Fit       []float64
}

func record(r *analyzer.AxisResult) AxisRecord {
	rec := AxisRecord{Axis: r.Axis.String(), Scalars: r.Scalars()}
	if r.Err != nil {
		rec.Error = r.Err.Error()
		return rec
	}
	rec.Offset = r.Offset
	rec.Estimates = r.Estimates
	rec.Up = r.Fit.Up.Params
	rec.Down = r.Fit.Down.Params
	return rec
}

func runID(sample string, now time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, sample)
	if name == "" {
		name = "sample"
	}
	return fmt.Sprintf("%s_%d", name, now.UnixNano())
}

// Save writes a sample analysis as <id>/metadata.json and <id>/curves.csv.
func (s *Store) Save(res analyzer.SampleResult, opts analyzer.Options, source ...string) (string, error) {
	now := time.Now()
	id := runID(res.Name, now)
	runDir := filepath.Join(s.baseDir, id)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        id,
		Sample:    res.Name,
		Source:    source,
		Timestamp: now,
		Settings: Settings{
			Negate:              opts.Negate,
			HkRadius:            opts.HkRadius,
			SaturationTolerance: opts.SaturationTolerance,
			Fit:                 opts.Fit,
		},
	}
	for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
		if r := res.Axis(axis); r != nil {
			meta.Axes = append(meta.Axes, record(r))
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeCurves(filepath.Join(runDir, curvesFile), res); err != nil {
		return "", err
	}
	return id, nil
}

func writeCurves(path string, res analyzer.SampleResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"axis", "branch", "h", "m", "fit"}); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, axis := range []loop.Axis{loop.Easy, loop.Hard} {
		r := res.Axis(axis)
		if !r.OK() {
			continue
		}
		fits := r.Fit.Branches()
		for i, b := range r.Loop.Branches() {
			for k := range b.H {
				row := []string{axis.String(), b.Direction.String(), format(b.H[k]), format(b.M[k]), ""}
				if k < len(fits[i].Curve) {
					row[4] = format(fits[i].Curve[k])
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortStableFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadCurves reads the stored branches of a run in file order.
func (s *Store) LoadCurves(runID string) ([]Curve, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, curvesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var curves []Curve
	for i := 1; i < len(records); i++ {
		rec := records[i]
		axis, err := loop.ParseAxis(rec[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", curvesFile, i+1, err)
		}
		dir := loop.Up
		if rec[1] == loop.Down.String() {
			dir = loop.Down
		}

		vals := [3]float64{}
		for j := range vals {
			if rec[2+j] == "" {
				vals[j] = math.NaN()
				continue
			}
			if vals[j], err = strconv.ParseFloat(rec[2+j], 64); err != nil {
				return nil, fmt.Errorf("storage: %s row %d: %w", curvesFile, i+1, err)
			}
		}

		n := len(curves)
		if n == 0 || curves[n-1].Axis != axis || curves[n-1].Direction != dir {
			curves = append(curves, Curve{Axis: axis, Direction: dir})
			n++
		}
		c := &curves[n-1]
		c.H = append(c.H, vals[0])
		c.M = append(c.M, vals[1])
		c.Fit = append(c.Fit, vals[2])
	}

	return curves, nil
}

func scalar(m map[string]*float64, name string) float64 {
	if v := m[name]; v != nil {
		return *v
	}
	return math.NaN()
}

// LoadSample rebuilds the analysis results of a run from its metadata and
// curves. Unavailable scalars come back as NaN and stored failures as an
// error carrying the stored message.
func (s *Store) LoadSample(runID string) (analyzer.SampleResult, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return analyzer.SampleResult{}, err
	}
	curves, err := s.LoadCurves(runID)
	if err != nil {
		return analyzer.SampleResult{}, err
	}

	out := analyzer.SampleResult{Name: meta.Sample}
	for _, rec := range meta.Axes {
		axis, err := loop.ParseAxis(rec.Axis)
		if err != nil {
			return out, fmt.Errorf("storage: run %s: %w", runID, err)
		}

		res := &analyzer.AxisResult{Axis: axis}
		if rec.Error != "" {
			res.Err = errors.New(rec.Error)
		} else {
			res.Ms = scalar(rec.Scalars, "ms")
			res.Hc = scalar(rec.Scalars, "hc")
			res.Mr = scalar(rec.Scalars, "mr")
			res.Squareness = scalar(rec.Scalars, "sqr")
			res.Hk = scalar(rec.Scalars, "hk")
			res.Offset = rec.Offset
			res.Estimates = rec.Estimates
			res.Fit.Up.Params = rec.Up
			res.Fit.Down.Params = rec.Down

			for _, c := range curves {
				if c.Axis != axis {
					continue
				}
				b := loop.Branch{Direction: c.Direction, H: c.H, M: c.M}
				if c.Direction == loop.Up {
					res.Loop.Up, res.Fit.Up.Curve = b, c.Fit
				} else {
					res.Loop.Down, res.Fit.Down.Curve = b, c.Fit
				}
			}
		}

		if axis == loop.Hard {
			out.Hard = res
		} else {
			out.Easy = res
		}
	}
	return out, nil
}
