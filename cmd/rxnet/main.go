package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/rxnet/internal/models"
	"github.com/san-kum/rxnet/internal/telemetry"
)

var (
	dataDir     string
	verbose     bool
	metricsAddr string

	logger    *slog.Logger
	registry  = models.NewRegistry()
	collector = telemetry.New()
)

// main registers the command tree and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "rxnet",
		Short:         "reaction network assembly and simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			if metricsAddr != "" {
				serveMetrics(metricsAddr)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rxnet", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	rootCmd.AddCommand(
		modelsCmd(),
		inspectCmd(),
		paramsCmd(),
		presetsCmd(),
		runCmd(),
		scanCmd(),
		liveCmd(),
		listCmd(),
		plotCmd(),
		exportJSONCmd(),
		exportSVGCmd(),
		analyzeCmd(),
		sensitivityCmd(),
		fitCmd(),
		batchCmd(),
		monteCarloCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
}

// parseAssignments turns name=value pairs into a map.
func parseAssignments(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("value of %s: %w", name, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}
