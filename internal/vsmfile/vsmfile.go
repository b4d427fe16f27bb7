// Package vsmfile reads exported VSM measurement files: a fixed number of
// header lines followed by tab-delimited field and moment columns.
package vsmfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/vsmkit/internal/loop"
)

var ErrNoData = errors.New("vsmfile: no data rows")

// Read skips headerLines lines and parses the remaining rows as (H, M)
// pairs from the first two tab-delimited columns. Blank lines are ignored;
// extra columns are ignored.
func Read(r io.Reader, headerLines int) (loop.Trace, error) {
	br := bufio.NewReader(r)
	for i := 0; i < headerLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, ErrNoData
			}
			return nil, fmt.Errorf("vsmfile: header: %w", err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var t loop.Trace
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vsmfile: %w", err)
		}

		p, err := parsePoint(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("vsmfile: line %d: %w", line+headerLines, err)
		}
		t = append(t, p)
	}

	if len(t) == 0 {
		return nil, ErrNoData
	}
	return t, nil
}

func parsePoint(rec []string) (loop.Point, error) {
	if len(rec) < 2 {
		return loop.Point{}, fmt.Errorf("expected 2 columns, got %d", len(rec))
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	if err != nil {
		return loop.Point{}, fmt.Errorf("field: %w", err)
	}
	m, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return loop.Point{}, fmt.Errorf("moment: %w", err)
	}
	return loop.Point{H: h, M: m}, nil
}

func ReadFile(path string, headerLines int) (loop.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f, headerLines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
