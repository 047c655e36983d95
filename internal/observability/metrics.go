package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "county_graph"

// Metrics holds the Prometheus counters, histograms, and gauges for a batch run.
type Metrics struct {
	RecordsConsumed prometheus.Counter
	UnknownKind     prometheus.Counter
	Dates           prometheus.Counter
	CountyNodes     prometheus.Counter
	StateNodes      prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Snapshot emission, labelled by sink={file,kafka}.
	SnapshotsWritten *prometheus.CounterVec
	SnapshotErrors   *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec // labels: stage
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsConsumed,
		m.UnknownKind,
		m.Dates,
		m.CountyNodes,
		m.StateNodes,
		m.PipelineRunning,
		m.SnapshotsWritten,
		m.SnapshotErrors,
		m.StageDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_consumed_total",
			Help:      "Total raw observations read from the input.",
		}),
		UnknownKind: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_kind_total",
			Help:      "Observations whose kind is neither Confirmed nor Deaths.",
		}),
		Dates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dates_total",
			Help:      "Distinct dates aggregated.",
		}),
		CountyNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "county_nodes_total",
			Help:      "County nodes built across all graphs.",
		}),
		StateNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_nodes_total",
			Help:      "State nodes built across all graphs.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the batch is running, 0 otherwise.",
		}),
		SnapshotsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_written_total",
			Help:      "Graph snapshots emitted successfully, by sink.",
		}, []string{"sink"}),
		SnapshotErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_errors_total",
			Help:      "Graph snapshots that failed to emit, by sink.",
		}, []string{"sink"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}
}
