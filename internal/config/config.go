package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/sim"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 10.0
	DefaultTolerance = 1e-6
	DefaultMinDt     = 1e-12
	DefaultOutput    = "runs"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Model       string             `yaml:"model"`
	Integrator  string             `yaml:"integrator"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Adaptive    bool               `yaml:"adaptive"`
	Tolerance   float64            `yaml:"tolerance"`
	MinDt       float64            `yaml:"min_dt"`
	MaxDt       float64            `yaml:"max_dt"`
	SaveEvery   int                `yaml:"save_every"`
	FiniteCheck bool               `yaml:"finite_check"`
	Output      string             `yaml:"output"`
	Parameters  map[string]float64 `yaml:"parameters,omitempty"`
	Initial     map[string]float64 `yaml:"initial,omitempty"`
	Scan        *ScanConfig        `yaml:"scan,omitempty"`
}

// ScanConfig sweeps one parameter. Values wins over the From/To/Steps grid.
type ScanConfig struct {
	Parameter string    `yaml:"parameter"`
	Values    []float64 `yaml:"values,omitempty"`
	From      float64   `yaml:"from"`
	To        float64   `yaml:"to"`
	Steps     int       `yaml:"steps"`
	Log       bool      `yaml:"log"`
	Workers   int       `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "decay",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTolerance,
		MinDt:      DefaultMinDt,
		SaveEvery:  1,
		Output:     DefaultOutput,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("%w: adaptive runs need a positive tolerance", ErrInvalidConfig)
	}
	if !slices.Contains(integrators.Names(), c.Integrator) {
		return fmt.Errorf("%w: unknown integrator %q", ErrInvalidConfig, c.Integrator)
	}
	if c.Scan != nil {
		if err := c.Scan.validate(); err != nil {
			return err
		}
	}
	return nil
}

// SimConfig converts the run settings for the simulator.
func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Duration = c.Duration
	cfg.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		cfg.Tolerance = c.Tolerance
	}
	if c.MinDt > 0 {
		cfg.MinDt = c.MinDt
	}
	cfg.MaxDt = c.MaxDt
	if c.SaveEvery > 0 {
		cfg.SaveEvery = c.SaveEvery
	}
	return cfg
}

// Overrides returns the parameter and initial-value overrides for a build.
func (c *Config) Overrides() models.Overrides {
	return models.Overrides{Parameters: c.Parameters, Initial: c.Initial}
}

func (s *ScanConfig) validate() error {
	if s.Parameter == "" {
		return fmt.Errorf("%w: scan needs a parameter", ErrInvalidConfig)
	}
	if len(s.Values) > 0 {
		return nil
	}
	if s.Steps < 1 {
		return fmt.Errorf("%w: scan needs values or steps >= 1", ErrInvalidConfig)
	}
	if s.Log && (s.From <= 0 || s.To <= 0) {
		return fmt.Errorf("%w: logarithmic scan bounds must be positive", ErrInvalidConfig)
	}
	return nil
}

// Points returns the scanned values. A grid of n steps has n points from
// From to To inclusive, spaced linearly or logarithmically.
func (s *ScanConfig) Points() []float64 {
	if len(s.Values) > 0 {
		return slices.Clone(s.Values)
	}
	if s.Steps == 1 {
		return []float64{s.From}
	}
	points := make([]float64, s.Steps)
	for i := range points {
		f := float64(i) / float64(s.Steps-1)
		if s.Log {
			points[i] = math.Exp(math.Log(s.From) + f*(math.Log(s.To)-math.Log(s.From)))
		} else {
			points[i] = s.From + f*(s.To-s.From)
		}
	}
	points[len(points)-1] = s.To
	return points
}
