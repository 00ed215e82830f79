package config

import (
	"maps"
	"slices"
)

var Presets = map[string]map[string]*Config{
	"decay": {
		"default": {
			Model: "decay", Integrator: "rk4", Dt: 0.01, Duration: 5.0,
		},
		"fast": {
			Model: "decay", Integrator: "rk45", Dt: 0.01, Duration: 1.0, Adaptive: true, Tolerance: 1e-8,
			Parameters: map[string]float64{"k": 10},
		},
	},
	"moiety": {
		"default": {
			Model: "moiety", Integrator: "rk4", Dt: 0.01, Duration: 20.0,
		},
		"slow-return": {
			Model: "moiety", Integrator: "rk45", Dt: 0.01, Duration: 50.0, Adaptive: true, Tolerance: 1e-8,
			Parameters: map[string]float64{"k3": 0.05},
		},
	},
	// The photosynthesis models are stiff; explicit runs stay short.
	"psi": {
		"light": {
			Model: "psi", Integrator: "rk45", Dt: 1e-7, Duration: 0.01, Adaptive: true, Tolerance: 1e-6, MaxDt: 1e-4,
			SaveEvery: 10,
		},
		"dark": {
			Model: "psi", Integrator: "rk45", Dt: 1e-7, Duration: 0.01, Adaptive: true, Tolerance: 1e-6, MaxDt: 1e-4,
			SaveEvery: 10,
			Parameters: map[string]float64{"pfd": 0},
		},
	},
	"petc": {
		"flash": {
			Model: "petc", Integrator: "rk45", Dt: 1e-12, Duration: 1e-6, Adaptive: true, Tolerance: 1e-6,
			SaveEvery: 100,
		},
		"anoxia": {
			Model: "petc", Integrator: "rk45", Dt: 1e-12, Duration: 1e-6, Adaptive: true, Tolerance: 1e-6,
			SaveEvery: 100,
			Parameters: map[string]float64{"ox": 0},
		},
	},
}

// GetPreset returns a copy of the named preset with defaults filled in, or
// nil when it does not exist.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Model = p.Model
	cfg.Integrator = p.Integrator
	cfg.Dt = p.Dt
	cfg.Duration = p.Duration
	cfg.Adaptive = p.Adaptive
	if p.Tolerance > 0 {
		cfg.Tolerance = p.Tolerance
	}
	cfg.MaxDt = p.MaxDt
	if p.SaveEvery > 0 {
		cfg.SaveEvery = p.SaveEvery
	}
	cfg.Parameters = maps.Clone(p.Parameters)
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
