package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the roster control service.
// Metrics are organized by subsystem: sessions, analyses, decisions, workbook
// mutations, and ingestion. All counters and histograms are registered via
// promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// SessionsCreated counts comparison sessions opened.
	SessionsCreated prometheus.Counter

	// SessionsActive tracks the number of live sessions.
	SessionsActive prometheus.Gauge

	// AnalysesRun counts full engine recomputations, labeled by trigger
	// ("initial", "decision", "undo", "thresholds").
	AnalysesRun *prometheus.CounterVec

	// AnalysisDuration observes the duration of one full recomputation in seconds.
	AnalysisDuration prometheus.Histogram

	// RecordsCompared observes the combined roster size per analysis.
	RecordsCompared prometheus.Histogram

	// AmbiguousPairs observes the number of detective pairs per analysis.
	AmbiguousPairs prometheus.Histogram

	// DecisionsRecorded counts ledger writes, labeled by verdict.
	DecisionsRecorded *prometheus.CounterVec

	// DecisionsUndone counts ledger undo operations.
	DecisionsUndone prometheus.Counter

	// WorkbookMutations counts successful workbook mutations, labeled by mode
	// ("cleaned", "updated").
	WorkbookMutations *prometheus.CounterVec

	// WorkbookMutationFailures counts failed workbook mutations, labeled by mode.
	WorkbookMutationFailures *prometheus.CounterVec

	// IngestFailures counts rejected roster sources, labeled by source.
	IngestFailures *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of comparison sessions created",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live comparison sessions",
		}),
		AnalysesRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_run_total",
			Help:      "Total number of full analysis recomputations",
		}, []string{"trigger"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of one full analysis recomputation",
			Buckets:   prometheus.DefBuckets,
		}),
		RecordsCompared: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_compared",
			Help:      "Combined roster size per analysis",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
		}),
		AmbiguousPairs: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ambiguous_pairs",
			Help:      "Number of detective pairs per analysis",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		DecisionsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total number of pair decisions recorded",
		}, []string{"verdict"}),
		DecisionsUndone: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_undone_total",
			Help:      "Total number of pair decisions undone",
		}),
		WorkbookMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workbook_mutations_total",
			Help:      "Total number of workbook mutations produced",
		}, []string{"mode"}),
		WorkbookMutationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workbook_mutation_failures_total",
			Help:      "Total number of workbook mutations that failed",
		}, []string{"mode"}),
		IngestFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Total number of roster sources that failed ingestion",
		}, []string{"source"}),
	}
}

// RecordSessionCreated increments the session counters.
func (m *Metrics) RecordSessionCreated(active int) {
	m.SessionsCreated.Inc()
	m.SessionsActive.Set(float64(active))
}

// RecordSessionClosed updates the active session gauge.
func (m *Metrics) RecordSessionClosed(active int) {
	m.SessionsActive.Set(float64(active))
}

// RecordAnalysis records one full recomputation.
func (m *Metrics) RecordAnalysis(trigger string, records, ambiguous int, seconds float64) {
	m.AnalysesRun.WithLabelValues(trigger).Inc()
	m.AnalysisDuration.Observe(seconds)
	m.RecordsCompared.Observe(float64(records))
	m.AmbiguousPairs.Observe(float64(ambiguous))
}

// RecordDecision records one ledger write.
func (m *Metrics) RecordDecision(verdict string) {
	m.DecisionsRecorded.WithLabelValues(verdict).Inc()
}

// RecordDecisionUndone records one ledger undo.
func (m *Metrics) RecordDecisionUndone() {
	m.DecisionsUndone.Inc()
}

// RecordWorkbookMutation records one workbook mutation outcome.
func (m *Metrics) RecordWorkbookMutation(mode string, success bool) {
	if success {
		m.WorkbookMutations.WithLabelValues(mode).Inc()
		return
	}
	m.WorkbookMutationFailures.WithLabelValues(mode).Inc()
}

// RecordIngestFailure records one rejected roster source.
func (m *Metrics) RecordIngestFailure(source string) {
	m.IngestFailures.WithLabelValues(source).Inc()
}
