package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/rxnet/internal/sim"
)

func TestObserverRecordsRuns(t *testing.T) {
	c := New()
	obs := c.Observer("decay").(sim.RunObserver)

	obs.OnRunEnd(&sim.Result{StepsTaken: 10, Rejected: 2, Evaluations: 70, Elapsed: 5 * time.Millisecond}, nil)
	obs.OnRunEnd(&sim.Result{StepsTaken: 3, Evaluations: 12}, &sim.SimulationError{Wrapped: sim.ErrInvalidState})
	obs.OnRunEnd(nil, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("decay", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("decay", "diverged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("decay", "error")))
	assert.Equal(t, 13.0, testutil.ToFloat64(c.steps.WithLabelValues("decay")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.rejected.WithLabelValues("decay")))
	assert.Equal(t, 82.0, testutil.ToFloat64(c.evaluations.WithLabelValues("decay")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Observer("psi").(sim.RunObserver).OnRunEnd(&sim.Result{StepsTaken: 1}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.steps.WithLabelValues("psi")))
	assert.Equal(t, 0, testutil.CollectAndCount(b.steps))
}

func TestSummary(t *testing.T) {
	c := New()
	c.Observer("decay").(sim.RunObserver).OnRunEnd(&sim.Result{StepsTaken: 4, Evaluations: 16}, nil)

	var buf bytes.Buffer
	require.NoError(t, c.Summary(&buf))

	out := buf.String()
	assert.Contains(t, out, `rxnet_steps_total{model="decay"} 4`)
	assert.Contains(t, out, `rxnet_runs_total{model="decay",outcome="ok"} 1`)
	assert.Contains(t, out, `rxnet_run_duration_seconds{model="decay"} count=1`)
}

func TestHandler(t *testing.T) {
	c := New()
	c.Observer("moiety").(sim.RunObserver).OnRunEnd(&sim.Result{StepsTaken: 2}, nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), fmt.Sprintf("rxnet_steps_total{model=%q} 2", "moiety"))
}
