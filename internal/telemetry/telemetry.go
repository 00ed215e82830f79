// Package telemetry exports simulation counters through Prometheus.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/rxnet/internal/sim"
)

// Collectors holds the run counters. They are registered on an explicit
// registry so several instances can coexist in one process.
type Collectors struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	steps       *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxnet_runs_total",
				Help: "Number of finished integration runs by model and outcome.",
			},
			[]string{"model", "outcome"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxnet_steps_total",
				Help: "Accepted integration steps by model.",
			},
			[]string{"model"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxnet_rejected_steps_total",
				Help: "Adaptive steps rejected for exceeding the tolerance, by model.",
			},
			[]string{"model"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rxnet_rhs_evaluations_total",
				Help: "Right-hand side evaluations by model.",
			},
			[]string{"model"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rxnet_run_duration_seconds",
				Help:    "Wall time of integration runs.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"model"},
		),
	}
	c.registry.MustRegister(c.runs, c.steps, c.rejected, c.evaluations, c.duration)
	return c
}

func (c *Collectors) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Observer returns a run observer that records into the collectors under
// the model label. It is safe to share between concurrent runs.
func (c *Collectors) Observer(model string) sim.Observer {
	return &observer{c: c, model: model}
}

type observer struct {
	c     *Collectors
	model string
}

func (o *observer) OnStep(sim.State, float64) {}

func (o *observer) OnRunEnd(res *sim.Result, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, sim.ErrInvalidState), errors.Is(err, sim.ErrStepTooSmall), errors.Is(err, sim.ErrTooManySteps):
		outcome = "diverged"
	default:
		outcome = "error"
	}
	o.c.runs.WithLabelValues(o.model, outcome).Inc()
	if res == nil {
		return
	}
	o.c.steps.WithLabelValues(o.model).Add(float64(res.StepsTaken))
	o.c.rejected.WithLabelValues(o.model).Add(float64(res.Rejected))
	o.c.evaluations.WithLabelValues(o.model).Add(float64(res.Evaluations))
	o.c.duration.WithLabelValues(o.model).Observe(res.Elapsed.Seconds())
}

// Summary writes one line per series: counters with their value and
// histograms with their sample count and sum.
func (c *Collectors) Summary(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			slices.Sort(labels)
			series := fmt.Sprintf("%s{%s}", mf.GetName(), strings.Join(labels, ","))

			if h := m.GetHistogram(); h != nil {
				_, err = fmt.Fprintf(w, "%s count=%d sum=%.6g\n", series, h.GetSampleCount(), h.GetSampleSum())
			} else {
				_, err = fmt.Fprintf(w, "%s %g\n", series, m.GetCounter().GetValue())
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
