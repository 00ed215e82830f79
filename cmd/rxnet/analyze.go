package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/rxnet/internal/analysis"
	"github.com/san-kum/rxnet/internal/automation"
	"github.com/san-kum/rxnet/internal/config"
	"github.com/san-kum/rxnet/internal/integrators"
	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/optim"
	"github.com/san-kum/rxnet/internal/sim"
	"github.com/san-kum/rxnet/internal/storage"
	"github.com/san-kum/rxnet/internal/viz"
)

func analyzeCmd() *cobra.Command {
	var (
		samples int
		window  float64
		tol     float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "ranges, dominant periods and steady state of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := storage.New(dataDir).LoadRun(args[0])
			if err != nil {
				return err
			}
			if len(run.Names) == 0 || len(run.Times) == 0 {
				return fmt.Errorf("run %s has no samples", args[0])
			}

			rows := make([]viz.CompoundSummary, 0, len(run.Names))
			series := make([][]float64, 0, len(run.Names))
			for _, name := range run.Names {
				s, _ := run.Series(name)
				series = append(series, s)
				row := viz.CompoundSummary{Name: name, Min: slices.Min(s), Max: slices.Max(s), Final: s[len(s)-1]}
				row.Oscillation, err = analysis.DominantPeriod(run.Times, s, samples)
				if err != nil {
					logger.Debug("no spectrum", "compound", name, "error", err)
				}
				rows = append(rows, row)
			}

			fmt.Printf("%s (%s), %d samples\n", run.Meta.Model, run.Meta.ID, len(run.Times))
			fmt.Print(viz.RenderAnalysis(rows, analysis.Settled(run.Times, series, window, tol)))
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 1024, "points of the resampled series")
	cmd.Flags().Float64Var(&window, "window", 0.1, "trailing fraction of the run checked for a steady state")
	cmd.Flags().Float64Var(&tol, "steady-tol", 1e-4, "relative variation allowed at steady state")
	return cmd
}

func sensitivityCmd() *cobra.Command {
	var (
		params  []string
		rel     float64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "sensitivity [model]",
		Short: "response of final concentrations to each parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			m, net, err := buildFromConfig(cfg)
			if err != nil {
				return err
			}
			base, err := m.Parameters(cfg.Parameters)
			if err != nil {
				return err
			}
			if len(params) == 0 {
				params = slices.Sorted(maps.Keys(base))
			}
			if _, err := integrators.New(cfg.Integrator); err != nil {
				return err
			}

			perturb := func(param string, factor float64) (sim.System, sim.State, error) {
				p := maps.Clone(base)
				if param != "" {
					if _, ok := p[param]; !ok {
						return nil, nil, fmt.Errorf("%w: %q", models.ErrUnknownParameter, param)
					}
					p[param] *= factor
				}
				n, err := m.Build(models.Overrides{Parameters: p, Initial: cfg.Initial}, network.WithFiniteCheck(cfg.FiniteCheck))
				if err != nil {
					return nil, nil, err
				}
				return n, sim.State(n.InitialState()), nil
			}
			newIntegrator := func() sim.Integrator {
				integ, _ := integrators.New(cfg.Integrator)
				return integ
			}

			s, err := analysis.Sensitivities(cmd.Context(), params, perturb, newIntegrator, cfg.SimConfig(), rel, workers,
				sim.WithObserver(collector.Observer(cfg.Model)))
			if err != nil {
				return err
			}
			fmt.Println(viz.RenderSensitivity(s, net.Compounds()))
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringSliceVar(&params, "params", nil, "parameters to perturb (default all)")
	cmd.Flags().Float64Var(&rel, "step", 0.01, "relative perturbation")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for one per cpu)")
	return cmd
}

// parseGrid reads name=from:to:n into a parameter name and its values.
func parseGrid(arg string) (string, []float64, error) {
	name, raw, ok := strings.Cut(arg, "=")
	parts := strings.Split(raw, ":")
	if !ok || name == "" || len(parts) != 3 {
		return "", nil, fmt.Errorf("expected name=from:to:n, got %q", arg)
	}
	from, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %s: %w", name, err)
	}
	to, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("grid %s: %w", name, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("grid %s: point count must be a positive integer", name)
	}
	return name, optim.Linspace(from, to, n), nil
}

func fitCmd() *cobra.Command {
	var (
		grids   []string
		targets []string
	)
	cmd := &cobra.Command{
		Use:   "fit [model]",
		Short: "grid search for parameters that reach target final concentrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			m, net, err := buildFromConfig(cfg)
			if err != nil {
				return err
			}
			want, err := parseAssignments(targets)
			if err != nil {
				return err
			}
			if len(want) == 0 {
				return fmt.Errorf("%w: fit needs at least one --target", config.ErrInvalidConfig)
			}

			names := make([]string, 0, len(grids))
			ranges := make([][]float64, 0, len(grids))
			for _, g := range grids {
				name, values, err := parseGrid(g)
				if err != nil {
					return err
				}
				names = append(names, name)
				ranges = append(ranges, values)
			}
			probe := make(map[string]float64, len(names))
			for _, name := range names {
				probe[name] = 0
			}
			if _, err := m.Parameters(probe); err != nil {
				return err
			}
			search, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}
			integ, err := integrators.New(cfg.Integrator)
			if err != nil {
				return err
			}

			compounds := net.Compounds()
			objective := func(ctx context.Context, params map[string]float64) (float64, error) {
				p := merge(cfg.Parameters, params)
				n, err := m.Build(models.Overrides{Parameters: p, Initial: cfg.Initial}, network.WithFiniteCheck(cfg.FiniteCheck))
				if err != nil {
					return 0, err
				}
				res, err := sim.New(n, integ, sim.WithObserver(collector.Observer(cfg.Model))).
					Run(ctx, sim.State(n.InitialState()), cfg.SimConfig())
				if err != nil {
					logger.Debug("grid point failed", "params", params, "error", err)
					return 0, err
				}
				return optim.TargetError(compounds, res.Final(), want)
			}

			fmt.Printf("searching %d grid points...\n", search.Size())
			best, score, err := search.Search(cmd.Context(), objective)
			if err != nil {
				return err
			}
			fmt.Println(viz.RenderMetrics(best))
			fmt.Printf("squared relative error: %g\n", score)
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringArrayVar(&grids, "grid", nil, "parameter grid name=from:to:n (repeatable)")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "target final concentration name=value (repeatable)")
	return cmd
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file and store the runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))

			outcomes, runErr := automation.RunScenario(cmd.Context(), scenario, registry, sim.WithLogger(logger))
			st := storage.New(dataDir)
			for i, o := range outcomes {
				meta := storage.RunMetadata{
					Model:      o.Config.Model,
					Integrator: o.Config.Integrator,
					Dt:         o.Config.Dt,
					Duration:   o.Config.Duration,
					Adaptive:   o.Config.Adaptive,
					Tolerance:  o.Config.Tolerance,
					Parameters: o.Network.Parameters(),
					Compounds:  o.Network.Compounds(),
				}
				if runErr != nil && i == len(outcomes)-1 {
					meta.Error = runErr.Error()
				}
				id, err := st.Save(meta, o.Result, nil)
				if err != nil {
					return err
				}
				fmt.Println(viz.Separator(48))
				fmt.Printf("%s: run id %s\n", o.Name, id)
				fmt.Println(viz.RenderState(o.Network.Compounds(), o.Result.Final()))
			}
			return runErr
		},
	}
}

func monteCarloCmd() *cobra.Command {
	var mc automation.MonteCarloConfig
	cmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "final-state statistics under random parameter perturbations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			_, net, err := buildFromConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("running %d trials of %s...\n", mc.Trials, cfg.Model)
			results, err := automation.RunMonteCarlo(cmd.Context(), cfg, mc, registry,
				sim.WithObserver(collector.Observer(cfg.Model)))
			if err != nil {
				return err
			}
			stats, failed := automation.MonteCarloStats(net.Compounds(), results)
			fmt.Print(viz.RenderEnsemble(stats, failed, len(results)))
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringSliceVar(&mc.Parameters, "params", nil, "parameters to perturb (default all)")
	cmd.Flags().Float64Var(&mc.Spread, "spread", 0.1, "standard deviation of the log perturbation")
	cmd.Flags().IntVar(&mc.Trials, "trials", 50, "number of trials")
	cmd.Flags().Uint64Var(&mc.Seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&mc.Workers, "workers", 0, "concurrent runs (0 for one per cpu)")
	return cmd
}

func writeOutput(path, doc string) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, doc)
		return err
	}
	return os.WriteFile(path, []byte(doc), 0644)
}
