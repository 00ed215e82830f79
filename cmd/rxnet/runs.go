package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/rxnet/internal/export"
	"github.com/san-kum/rxnet/internal/storage"
	"github.com/san-kum/rxnet/internal/viz"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}
			fmt.Println(viz.RenderRuns(runs))
			return nil
		},
	}
}

func plotCmd() *cobra.Command {
	var (
		compounds   []string
		diagnostics []string
		width       int
		height      int
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			run, err := st.LoadRun(args[0])
			if err != nil {
				return err
			}

			opts := viz.DefaultPlotOptions()
			if width > 0 {
				opts.Width = width
			}
			if height > 0 {
				opts.Height = height
			}
			opts.Caption = fmt.Sprintf("%s (%s)", run.Meta.Model, run.Meta.ID)

			var names []string
			var series [][]float64
			selected := compounds
			if len(selected) == 0 && len(diagnostics) == 0 {
				selected = run.Names
			}
			for _, name := range selected {
				s, ok := run.Series(name)
				if !ok {
					return fmt.Errorf("run %s has no compound %q", run.Meta.ID, name)
				}
				names = append(names, name)
				series = append(series, s)
			}

			if len(diagnostics) > 0 {
				diag, err := st.LoadDiagnostics(args[0])
				if err != nil {
					return err
				}
				for _, name := range diagnostics {
					s, ok := diag.Series(name)
					if !ok {
						return fmt.Errorf("run %s has no diagnostic %q", run.Meta.ID, name)
					}
					names = append(names, name)
					series = append(series, s)
				}
			}

			fmt.Println(viz.PlotSeries(names, series, opts))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&compounds, "compounds", nil, "compounds to plot (default all)")
	cmd.Flags().StringSliceVar(&diagnostics, "diagnostics", nil, "module outputs to plot")
	cmd.Flags().IntVar(&width, "width", 0, "plot width")
	cmd.Flags().IntVar(&height, "height", 0, "plot height")
	return cmd
}

func exportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := storage.New(dataDir).LoadRun(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				return storage.ExportJSON(os.Stdout, run)
			}
			return storage.ExportJSONFile(out, run)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func exportSVGCmd() *cobra.Command {
	var (
		out       string
		compounds []string
		phase     []string
		width     int
		height    int
	)
	cmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write time courses or a phase portrait of a stored run as svg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := storage.New(dataDir).LoadRun(args[0])
			if err != nil {
				return err
			}

			if len(phase) > 0 {
				if len(phase) != 2 {
					return fmt.Errorf("--phase takes two compounds, got %d", len(phase))
				}
				xs, ok := run.Series(phase[0])
				if !ok {
					return fmt.Errorf("run %s has no compound %q", run.Meta.ID, phase[0])
				}
				ys, ok := run.Series(phase[1])
				if !ok {
					return fmt.Errorf("run %s has no compound %q", run.Meta.ID, phase[1])
				}
				return writeOutput(out, export.PhaseSVG(xs, ys, phase[0], phase[1], width, height))
			}

			if len(compounds) == 0 {
				compounds = run.Names
			}
			series := make([][]float64, 0, len(compounds))
			for _, name := range compounds {
				s, ok := run.Series(name)
				if !ok {
					return fmt.Errorf("run %s has no compound %q", run.Meta.ID, name)
				}
				series = append(series, s)
			}
			doc := export.SeriesSVG(run.Times, compounds, series, width, height)
			if doc == "" {
				return fmt.Errorf("run %s has too few samples to draw", run.Meta.ID)
			}
			return writeOutput(out, doc)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringSliceVar(&compounds, "compounds", nil, "compounds to draw (default all)")
	cmd.Flags().StringSliceVar(&phase, "phase", nil, "draw the second compound against the first, e.g. X,Y")
	cmd.Flags().IntVar(&width, "width", 800, "image width")
	cmd.Flags().IntVar(&height, "height", 500, "image height")
	return cmd
}
