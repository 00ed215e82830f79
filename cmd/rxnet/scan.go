package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/rxnet/internal/config"
	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/sim"
	"github.com/san-kum/rxnet/internal/storage"
	"github.com/san-kum/rxnet/internal/viz"
)

var (
	scanParam   string
	scanValues  []float64
	scanFrom    float64
	scanTo      float64
	scanSteps   int
	scanLog     bool
	scanWorkers int
	liveEvery   int
)

func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	changed := false
	for _, name := range []string{"param", "values", "from", "to", "steps", "log", "workers"} {
		changed = changed || flags.Changed(name)
	}
	if !changed {
		return
	}
	if cfg.Scan == nil {
		cfg.Scan = &config.ScanConfig{}
	}
	if flags.Changed("param") {
		cfg.Scan.Parameter = scanParam
	}
	if flags.Changed("values") {
		cfg.Scan.Values = scanValues
	}
	if flags.Changed("from") {
		cfg.Scan.From = scanFrom
	}
	if flags.Changed("to") {
		cfg.Scan.To = scanTo
	}
	if flags.Changed("steps") {
		cfg.Scan.Steps = scanSteps
	}
	if flags.Changed("log") {
		cfg.Scan.Log = scanLog
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = scanWorkers
	}
}

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [model]",
		Short: "integrate a model over a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&scanParam, "param", "", "parameter to scan")
	cmd.Flags().Float64SliceVar(&scanValues, "values", nil, "explicit parameter values")
	cmd.Flags().Float64Var(&scanFrom, "from", 0, "first value of the grid")
	cmd.Flags().Float64Var(&scanTo, "to", 1, "last value of the grid")
	cmd.Flags().IntVar(&scanSteps, "steps", 5, "number of grid points")
	cmd.Flags().BoolVar(&scanLog, "log", false, "logarithmic grid")
	cmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent runs (0 for one per cpu)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the scan")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Scan == nil {
		return fmt.Errorf("%w: scan needs --param or a scan section", config.ErrInvalidConfig)
	}
	m, ref, err := buildFromConfig(cfg)
	if err != nil {
		return err
	}
	param := cfg.Scan.Parameter
	if _, err := m.Parameters(map[string]float64{param: 0}); err != nil {
		return err
	}
	if _, err := integrators.New(cfg.Integrator); err != nil {
		return err
	}

	build := func(v float64) (sim.System, sim.State, error) {
		ov := cfg.Overrides()
		ov.Parameters = merge(ov.Parameters, map[string]float64{param: v})
		net, err := m.Build(ov, network.WithFiniteCheck(cfg.FiniteCheck))
		if err != nil {
			return nil, nil, err
		}
		return net, sim.State(net.InitialState()), nil
	}
	newIntegrator := func() sim.Integrator {
		integ, _ := integrators.New(cfg.Integrator)
		return integ
	}

	values := cfg.Scan.Points()
	fmt.Printf("scanning %s over %d values of %s...\n", cfg.Model, len(values), param)
	results, err := sim.Scan(cmd.Context(), values, build, newIntegrator, cfg.SimConfig(), cfg.Scan.Workers,
		sim.WithLogger(logger), sim.WithObserver(collector.Observer(cfg.Model)))
	if err != nil {
		return err
	}

	if !noSave {
		meta := storage.RunMetadata{
			Model:      cfg.Model,
			Integrator: cfg.Integrator,
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
			Adaptive:   cfg.Adaptive,
			Tolerance:  cfg.Tolerance,
			Parameters: ref.Parameters(),
			Compounds:  ref.Compounds(),
			ScanOver:   param,
		}
		runID, err := storage.New(dataDir).SaveScan(meta, results)
		if err != nil {
			return err
		}
		fmt.Printf("scan id: %s\n", runID)
	}

	fmt.Println(viz.RenderScan(param, ref.Compounds(), results))
	return nil
}

func liveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live [model]",
		Short: "watch a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addRunFlags(cmd)
	cmd.Flags().IntVar(&liveEvery, "every", 1, "send every n-th step to the view")
	return cmd
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := registry.Get(cfg.Model)
	if err != nil {
		return err
	}
	// the terminal belongs to the view, so the network logs nowhere
	net, err := m.Build(cfg.Overrides(), network.WithFiniteCheck(cfg.FiniteCheck))
	if err != nil {
		return err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool := sim.NewStatePool(net.Dim())
	s := sim.New(net, integ, sim.WithObserver(collector.Observer(cfg.Model)))
	updates := viz.Stream(ctx, s, sim.State(net.InitialState()), cfg.SimConfig(), liveEvery, pool)

	model := viz.NewLive(cfg.Model, net.Compounds(), cfg.Duration, updates, pool, cancel)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if live, ok := final.(viz.Live); ok && live.Err() != nil {
		return live.Err()
	}
	return nil
}

