package loop

import (
	"fmt"
	"math"
	"strings"
)

// Point is one magnetometer reading: applied field H and measured moment M.
type Point struct {
	H float64 `json:"h"`
	M float64 `json:"m"`
}

// Trace is a sequence of readings in measurement order.
type Trace []Point

func (t Trace) Clone() Trace {
	c := make(Trace, len(t))
	copy(c, t)
	return c
}

// Negate returns a copy of the trace with every moment sign-inverted.
func (t Trace) Negate() Trace {
	c := make(Trace, len(t))
	for i, p := range t {
		c[i] = Point{H: p.H, M: -p.M}
	}
	return c
}

func (t Trace) IsValid() bool {
	for _, p := range t {
		if math.IsNaN(p.H) || math.IsInf(p.H, 0) || math.IsNaN(p.M) || math.IsInf(p.M, 0) {
			return false
		}
	}
	return true
}

// Direction is the sweep direction of a branch.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Branch holds the samples of one sweep direction.
type Branch struct {
	Direction Direction
	H         []float64
	M         []float64
}

func NewBranch(dir Direction, pts Trace) Branch {
	b := Branch{
		Direction: dir,
		H:         make([]float64, len(pts)),
		M:         make([]float64, len(pts)),
	}
	for i, p := range pts {
		b.H[i] = p.H
		b.M[i] = p.M
	}
	return b
}

func (b Branch) Len() int { return len(b.H) }

// Validate reports ErrInsufficientData for branches with fewer than two
// samples or mismatched columns.
func (b Branch) Validate() error {
	if len(b.H) != len(b.M) {
		return &BranchError{Direction: b.Direction, Stage: "validate",
			Wrapped: fmt.Errorf("%w: %d field values, %d moment values", ErrInsufficientData, len(b.H), len(b.M))}
	}
	if len(b.H) < 2 {
		return &BranchError{Direction: b.Direction, Stage: "validate",
			Wrapped: fmt.Errorf("%w: %d samples", ErrInsufficientData, len(b.H))}
	}
	return nil
}

// Shift returns a copy with offset subtracted from every field value.
func (b Branch) Shift(offset float64) Branch {
	c := Branch{Direction: b.Direction, H: make([]float64, len(b.H)), M: make([]float64, len(b.M))}
	for i, h := range b.H {
		c.H[i] = h - offset
	}
	copy(c.M, b.M)
	return c
}

// Points returns the branch as a trace.
func (b Branch) Points() Trace {
	t := make(Trace, len(b.H))
	for i := range b.H {
		t[i] = Point{H: b.H[i], M: b.M[i]}
	}
	return t
}

// Loop is one measurement axis: an up sweep and a down sweep.
type Loop struct {
	Up   Branch
	Down Branch
}

// NewLoop builds a loop from already split branches.
func NewLoop(up, down Trace) Loop {
	return Loop{Up: NewBranch(Up, up), Down: NewBranch(Down, down)}
}

func (l Loop) Validate() error {
	if err := l.Up.Validate(); err != nil {
		return err
	}
	return l.Down.Validate()
}

// Branches returns the up and down branch in that order.
func (l Loop) Branches() [2]Branch {
	return [2]Branch{l.Up, l.Down}
}

// Axis is the crystallographic measurement direction of a loop.
type Axis int

const (
	Easy Axis = iota
	Hard
)

func (a Axis) String() string {
	if a == Hard {
		return "hard"
	}
	return "easy"
}

// ParseAxis accepts "easy"/"e" and "hard"/"h", case-insensitively.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "e":
		return Easy, nil
	case "hard", "h":
		return Hard, nil
	}
	return Easy, fmt.Errorf("unknown axis: %q (want easy or hard)", s)
}

// Sample is one physical specimen with up to one raw trace per axis.
// A nil trace means the axis was not measured.
type Sample struct {
	Name string
	Easy Trace
	Hard Trace
}

// Trace returns the raw trace measured along axis.
func (s Sample) Trace(axis Axis) Trace {
	if axis == Hard {
		return s.Hard
	}
	return s.Easy
}
