package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/rxnet/internal/config"
	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/metrics"
	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
	"github.com/san-kum/rxnet/internal/storage"
	"github.com/san-kum/rxnet/internal/viz"
)

var (
	configFile     string
	preset         string
	integratorName string
	dt             float64
	duration       float64
	tolerance      float64
	maxDt          float64
	adaptive       bool
	saveEvery      int
	finiteCheck    bool
	noSave         bool
	showPlot       bool
	showMetrics    bool
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integratorName, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep, or initial step when adaptive")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "local error tolerance for adaptive stepping")
	cmd.Flags().Float64Var(&maxDt, "max-dt", 0, "largest adaptive step (0 for no limit)")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping")
	cmd.Flags().IntVar(&saveEvery, "save-every", 1, "keep every n-th accepted step")
	cmd.Flags().BoolVar(&finiteCheck, "finite-check", false, "fail on non-finite rates and module outputs")
	addOverrideFlags(cmd)
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	model := ""
	if len(args) > 0 {
		model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if model != "" {
		cfg.Model = model
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integratorName
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("max-dt") {
		cfg.MaxDt = maxDt
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("save-every") {
		cfg.SaveEvery = saveEvery
	}
	if flags.Changed("finite-check") {
		cfg.FiniteCheck = finiteCheck
	}

	params, err := parseAssignments(paramSets)
	if err != nil {
		return nil, err
	}
	initial, err := parseAssignments(initSets)
	if err != nil {
		return nil, err
	}
	cfg.Parameters = merge(cfg.Parameters, params)
	cfg.Initial = merge(cfg.Initial, initial)

	if flags.Lookup("param") != nil {
		applyScanFlags(cmd, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func merge(base, over map[string]float64) map[string]float64 {
	if len(over) == 0 {
		return base
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]float64, len(over))
	}
	maps.Copy(out, over)
	return out
}

func buildFromConfig(cfg *config.Config) (*models.Model, *network.FrozenNetwork, error) {
	m, err := registry.Get(cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	net, err := m.Build(cfg.Overrides(), network.WithLogger(logger), network.WithFiniteCheck(cfg.FiniteCheck))
	if err != nil {
		return nil, nil, err
	}
	return m, net, nil
}

// runMetrics prepares the positivity check and one drift metric per
// conserved group of the model.
func runMetrics(m *models.Model, net *network.FrozenNetwork, x0 sim.State) ([]metrics.Metric, error) {
	ms := []metrics.Metric{metrics.NewPositivity(1e-9)}
	for _, name := range slices.Sorted(maps.Keys(m.Conserved)) {
		c, err := metrics.ConservationOf(name+"_drift", net.Compounds(), m.Conserved[name]...)
		if err != nil {
			return nil, err
		}
		c.Reference(x0)
		ms = append(ms, c)
	}
	return ms, nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate a model and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&showPlot, "plot", false, "plot the trajectory")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print telemetry counters")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	m, net, err := buildFromConfig(cfg)
	if err != nil {
		return err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}

	x0 := sim.State(net.InitialState())
	ms, err := runMetrics(m, net, x0)
	if err != nil {
		return err
	}
	opts := []sim.Option{sim.WithLogger(logger), sim.WithObserver(collector.Observer(cfg.Model))}
	for _, mt := range ms {
		opts = append(opts, sim.WithObserver(mt))
	}

	fmt.Printf("running %s simulation...\n", cfg.Model)
	start := time.Now()
	result, runErr := sim.New(net, integ, opts...).Run(cmd.Context(), x0, cfg.SimConfig())
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)
	values := metrics.Collect(ms...)

	states := make([][]float64, len(result.States))
	for i, x := range result.States {
		states[i] = x
	}
	diag, err := net.EvaluateTrajectory(result.Times, states)
	if err != nil {
		logger.Warn("module diagnostics unavailable", "error", err)
		diag = nil
	}

	if !noSave {
		meta := storage.RunMetadata{
			Model:      cfg.Model,
			Integrator: cfg.Integrator,
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
			Adaptive:   cfg.Adaptive,
			Tolerance:  cfg.Tolerance,
			Parameters: net.Parameters(),
			Compounds:  net.Compounds(),
			Metrics:    values,
		}
		if runErr != nil {
			meta.Error = runErr.Error()
		}
		runID, err := storage.New(dataDir).Save(meta, result, diag)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d (rejected %d, rhs evaluations %d)\n\n", result.StepsTaken, result.Rejected, result.Evaluations)
	fmt.Println(viz.RenderState(net.Compounds(), result.Final()))
	fmt.Println(viz.RenderMetrics(values))

	if showPlot && len(result.States) > 1 {
		series := make([][]float64, net.Dim())
		for i := range series {
			series[i] = make([]float64, len(states))
			for k, row := range states {
				series[i][k] = row[i]
			}
		}
		plotOpts := viz.DefaultPlotOptions()
		plotOpts.Caption = cfg.Model + " trajectory"
		fmt.Println(viz.PlotSeries(net.Compounds(), series, plotOpts))
	}
	if showMetrics {
		if err := collector.Summary(os.Stdout); err != nil {
			return err
		}
	}
	return runErr
}
