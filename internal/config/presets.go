package config

import (
	"sort"

	"github.com/san-kum/vsmkit/internal/fit"
)

var Presets = map[string]*Config{
	"default": {
		HkRadius: 1.0, SaturationTolerance: 0.1, HeaderLines: 10, Delimiter: " ", Workers: 4,
		Fit: fit.DefaultSettings(),
	},
	// radius the standalone command-line tool used
	"legacy-cli": {
		HkRadius: 4.0, SaturationTolerance: 0.1, HeaderLines: 10, Delimiter: " ", Workers: 4,
		Fit: fit.DefaultSettings(),
	},
	// sheared hard-axis films with a long linear ramp
	"wide-ramp": {
		Mode: "hard", HkRadius: 10.0, SaturationTolerance: 0.1, HeaderLines: 10, Delimiter: " ", Workers: 4,
		Fit: fit.Settings{MaxIterations: 500, Ftol: 1e-10, Xtol: 1e-10, Gtol: 1e-12, InitialDamping: 1e-2},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
