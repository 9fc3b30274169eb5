// Package metrics provides Prometheus metrics for validation runs, written
// to a node-exporter textfile at the end of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/c360studio/rmlvalidate/runner"
)

const namespace = "rmlvalidate"

// Metrics holds the run metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Documents counts resolved inputs by status
	Documents *prometheus.CounterVec
	// Validations counts validated graphs by mode and result
	Validations *prometheus.CounterVec
	// Triples counts triples loaded from documents
	Triples prometheus.Counter

	RunDuration   prometheus.Gauge
	LastRunTime   prometheus.Gauge
	LastRunFailed prometheus.Gauge
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Total number of documents processed, by status",
		}, []string{"status"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of SHACL validations, by mode and result",
		}, []string{"mode", "result"}),
		Triples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triples_loaded_total",
			Help:      "Total number of triples loaded from documents",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last validation run in seconds",
		}),
		LastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last validation run started",
		}),
		LastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_failures",
			Help:      "Number of failed outcomes in the last validation run",
		}),
	}
}

// Observe implements runner.Observer.
func (m *Metrics) Observe(o runner.Outcome) {
	if !o.IsCombinedResult() {
		m.Documents.WithLabelValues(string(o.Status)).Inc()
		m.Triples.Add(float64(o.Triples))
	}

	switch o.Status {
	case runner.StatusPassed:
		m.Validations.WithLabelValues(string(o.Mode), "conforms").Inc()
	case runner.StatusValidationFailed:
		m.Validations.WithLabelValues(string(o.Mode), "violation").Inc()
	}
}

// ObserveRun records the run-level gauges.
func (m *Metrics) ObserveRun(s *runner.Summary) {
	m.RunDuration.Set(s.Duration.Seconds())
	m.LastRunTime.Set(float64(s.Started.Unix()))
	m.LastRunFailed.Set(float64(s.Failures()))
}

// WriteFile writes the registry in the text exposition format. The file is
// replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
