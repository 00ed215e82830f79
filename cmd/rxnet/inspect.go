package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/rxnet/internal/config"
	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/network"
	"github.com/san-kum/rxnet/internal/viz"
)

var (
	paramSets []string
	initSets  []string
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "list available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tDESCRIPTION")
			for _, name := range registry.List() {
				m, _ := registry.Get(name)
				fmt.Fprintf(w, "%s\t%s\n", m.Name, m.Description)
			}
			return w.Flush()
		},
	}
}

// buildModel finalizes a model with --set and --init overrides applied.
func buildModel(name string) (*models.Model, *network.FrozenNetwork, error) {
	m, err := registry.Get(name)
	if err != nil {
		return nil, nil, err
	}
	params, err := parseAssignments(paramSets)
	if err != nil {
		return nil, nil, err
	}
	initial, err := parseAssignments(initSets)
	if err != nil {
		return nil, nil, err
	}
	net, err := m.Build(models.Overrides{Parameters: params, Initial: initial}, network.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return m, net, nil
}

func addOverrideFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&paramSets, "set", nil, "parameter override name=value (repeatable)")
	cmd.Flags().StringSliceVar(&initSets, "init", nil, "initial concentration name=value (repeatable)")
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "show compounds, module order and reactions of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, net, err := buildModel(args[0])
			if err != nil {
				return err
			}
			fmt.Print(viz.RenderNetwork(args[0], net))

			matrix, _ := cmd.Flags().GetBool("matrix")
			if matrix {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprint(w, "\t")
				for _, r := range net.Reactions() {
					fmt.Fprintf(w, "%s\t", r)
				}
				fmt.Fprintln(w)
				for i, row := range net.StoichiometricMatrix() {
					fmt.Fprintf(w, "%s\t", net.Compounds()[i])
					for _, v := range row {
						fmt.Fprintf(w, "%g\t", v)
					}
					fmt.Fprintln(w)
				}
				return w.Flush()
			}
			return nil
		},
	}
	addOverrideFlags(cmd)
	cmd.Flags().Bool("matrix", false, "print the stoichiometric matrix")
	return cmd
}

func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params [model]",
		Short: "show resolved parameter values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, net, err := buildModel(args[0])
			if err != nil {
				return err
			}
			fmt.Print(viz.RenderParameters(net))
			return nil
		},
	}
	addOverrideFlags(cmd)
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				cfg := config.GetPreset(args[0], p)
				fmt.Printf("  %-12s %s dt=%g duration=%g adaptive=%t\n", p, cfg.Integrator, cfg.Dt, cfg.Duration, cfg.Adaptive)
			}
			return nil
		},
	}
}
