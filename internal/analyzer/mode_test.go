package analyzer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/vsmkit/internal/loop"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name       string
		easy, hard bool
		answer     string
		want       loop.Axis
		prompted   bool
	}{
		{"easy flag", true, false, "", loop.Easy, false},
		{"hard flag", false, true, "", loop.Hard, false},
		{"neither, answer hard", false, false, "Hard\n", loop.Hard, true},
		{"both, answer h", true, true, "h\n", loop.Hard, true},
		{"neither, default", false, false, "\n", loop.Easy, true},
		{"neither, no newline", false, false, "e", loop.Easy, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := ResolveMode(tt.easy, tt.hard, strings.NewReader(tt.answer), &out)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ResolveMode() = %v, want %v", got, tt.want)
			}
			if prompted := out.Len() > 0; prompted != tt.prompted {
				t.Errorf("prompted = %v, want %v", prompted, tt.prompted)
			}
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	a := New(Options{})
	if a.Options().HkRadius != 1.0 {
		t.Errorf("expected default Hk radius 1.0, got %v", a.Options().HkRadius)
	}
	if a.Options().SaturationTolerance != 0.1 {
		t.Errorf("expected default tolerance 0.1, got %v", a.Options().SaturationTolerance)
	}
}

func TestValues_FailedAxis(t *testing.T) {
	r := &AxisResult{Axis: loop.Hard, Err: loop.ErrInsufficientData}
	vals := r.Values()
	if len(vals) != 2 || vals[0].Name != "ms" || vals[1].Name != "hk" {
		t.Fatalf("unexpected values %+v", vals)
	}
	for _, v := range vals {
		if v.OK {
			t.Errorf("%s should be unavailable", v.Name)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		mode       string
		easy, hard bool
		wantErr    bool
	}{
		{"", false, false, false},
		{"easy", true, false, false},
		{"H", false, true, false},
		{"diagonal", false, false, true},
	}

	for _, tt := range tests {
		easy, hard, err := ParseMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			continue
		}
		if easy != tt.easy || hard != tt.hard {
			t.Errorf("ParseMode(%q) = (%v, %v), want (%v, %v)", tt.mode, easy, hard, tt.easy, tt.hard)
		}
	}
}
