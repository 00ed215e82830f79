package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rxnet/internal/config"
	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run of a scenario. Its fields are those of a run
// configuration plus an optional name and preset; fields left out keep
// the preset's or the default value.
type ScenarioStep struct {
	Name   string
	Config *config.Config
}

func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Model  string `yaml:"model"`
		Preset string `yaml:"preset"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		cfg = config.GetPreset(head.Model, head.Preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset %q for model %q", head.Preset, head.Model)
		}
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}

	s.Name = head.Name
	if s.Name == "" {
		s.Name = cfg.Model
	}
	s.Config = cfg
	return nil
}

// LoadScenario loads a scenario from a YAML file and validates every step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", config.ErrInvalidConfig, scenario.Name)
	}
	for i, step := range scenario.Steps {
		if err := step.Config.Validate(); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
	}
	return &scenario, nil
}

// Outcome is the result of one executed configuration.
type Outcome struct {
	Name    string
	Config  *config.Config
	Network *network.FrozenNetwork
	Result  *sim.Result
}

// Execute builds the model named by cfg and integrates it.
func Execute(ctx context.Context, registry *models.Registry, cfg *config.Config, opts ...sim.Option) (*network.FrozenNetwork, *sim.Result, error) {
	m, err := registry.Get(cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	net, err := m.Build(cfg.Overrides(), network.WithFiniteCheck(cfg.FiniteCheck))
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}
	res, err := sim.New(net, integ, opts...).Run(ctx, sim.State(net.InitialState()), cfg.SimConfig())
	return net, res, err
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the outcomes so far. The failing step's partial outcome is
// included when its run got under way.
func RunScenario(ctx context.Context, scenario *Scenario, registry *models.Registry, opts ...sim.Option) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		net, res, err := Execute(ctx, registry, step.Config, opts...)
		if res != nil {
			outcomes = append(outcomes, Outcome{Name: step.Name, Config: step.Config, Network: net, Result: res})
		}
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
	}
	return outcomes, nil
}
