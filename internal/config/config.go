package config

import (
	"os"

	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/estimate"
	"github.com/san-kum/vsmkit/internal/fit"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHeaderLines = 10
	DefaultDelimiter   = " "
)

type Config struct {
	Mode                string       `yaml:"mode"`
	Negate              bool         `yaml:"negate"`
	HkRadius            float64      `yaml:"hk_radius"`
	SaturationTolerance float64      `yaml:"saturation_tolerance"`
	HeaderLines         int          `yaml:"header_lines"`
	Delimiter           string       `yaml:"delimiter"`
	Workers             int          `yaml:"workers"`
	Fit                 fit.Settings `yaml:"fit"`
}

func DefaultConfig() *Config {
	return &Config{
		HkRadius:            estimate.DefaultHkRadius,
		SaturationTolerance: estimate.DefaultSaturationTolerance,
		HeaderLines:         DefaultHeaderLines,
		Delimiter:           DefaultDelimiter,
		Workers:             analyzer.DefaultWorkers,
		Fit:                 fit.DefaultSettings(),
	}
}

// Load reads a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	return LoadWith(path, DefaultConfig())
}

// LoadWith reads a YAML file over base, which is modified in place.
func LoadWith(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, err
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options converts the analysis part of the configuration.
func (c *Config) Options() analyzer.Options {
	return analyzer.Options{
		Negate:              c.Negate,
		HkRadius:            c.HkRadius,
		SaturationTolerance: c.SaturationTolerance,
		Fit:                 c.Fit,
	}
}
