package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/rmlvalidate/runner"
)

func TestObserveOutcomes(t *testing.T) {
	m := New()

	m.Observe(runner.Outcome{Mode: runner.ModePerFile, Path: "a.ttl", Status: runner.StatusPassed, Triples: 5})
	m.Observe(runner.Outcome{Mode: runner.ModePerFile, Path: "b.ttl", Status: runner.StatusValidationFailed, Triples: 3})
	m.Observe(runner.Outcome{Mode: runner.ModePerFile, Path: "c.ttl", Status: runner.StatusParseFailed})
	m.Observe(runner.Outcome{Mode: runner.ModeCombined, Path: "d.ttl", Status: runner.StatusLoaded, Triples: 2})
	m.Observe(runner.Outcome{Mode: runner.ModeCombined, Status: runner.StatusPassed, Triples: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("validation_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("parse_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("loaded")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Triples))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("per-file", "conforms")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("per-file", "violation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("combined", "conforms")))
}

func TestObserveRunAndWriteFile(t *testing.T) {
	m := New()
	started := time.Unix(1700000000, 0)
	m.ObserveRun(&runner.Summary{
		Started:  started,
		Duration: 1500 * time.Millisecond,
		Outcomes: []runner.Outcome{{Status: runner.StatusParseFailed}, {Status: runner.StatusPassed}},
	})

	assert.Equal(t, 1.5, testutil.ToFloat64(m.RunDuration))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastRunTime))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LastRunFailed))

	path := filepath.Join(t.TempDir(), "rmlvalidate.prom")
	require.NoError(t, m.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rmlvalidate_run_duration_seconds 1.5")
	assert.Contains(t, string(data), "rmlvalidate_last_run_failures 1")
}
