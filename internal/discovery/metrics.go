package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricPipelineRuns       = "discovery_pipeline_runs_total"
	MetricProviderErrors     = "discovery_provider_errors_total"
	MetricKeywordsSkipped    = "discovery_keywords_skipped_total"
	MetricCandidatesRejected = "discovery_candidates_rejected_total"
	MetricPipelineDuration   = "discovery_pipeline_duration_seconds"
)

// Pipeline modes used as the mode label.
const (
	ModeQuality   = "quality"
	ModeTrending  = "trending"
	ModeAggregate = "aggregate"
)

// Metrics contains Prometheus metrics for the discovery pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	pipelineRuns       *prometheus.CounterVec
	providerErrors     *prometheus.CounterVec
	keywordsSkipped    prometheus.Counter
	candidatesRejected *prometheus.CounterVec
	pipelineDuration   *prometheus.HistogramVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricPipelineRuns,
			Help: "Total number of discovery pipeline runs by mode",
		}, []string{"mode"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricProviderErrors,
			Help: "Total number of failed upstream provider calls by operation",
		}, []string{"op"}),
		keywordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricKeywordsSkipped,
			Help: "Total number of keywords skipped during aggregation after a provider failure",
		}),
		candidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCandidatesRejected,
			Help: "Total number of candidates dropped before scoring by reason",
		}, []string{"reason"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricPipelineDuration,
			Help:    "Histogram of discovery pipeline duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.pipelineRuns,
		m.providerErrors,
		m.keywordsSkipped,
		m.candidatesRejected,
		m.pipelineDuration,
	}
}

// ObserveRun records a completed pipeline run.
func (m *Metrics) ObserveRun(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(mode).Inc()
	m.pipelineDuration.WithLabelValues(mode).Observe(seconds)
}

// IncProviderError increments the provider error counter for op.
func (m *Metrics) IncProviderError(op string) {
	if m == nil {
		return
	}
	m.providerErrors.WithLabelValues(op).Inc()
}

// IncKeywordsSkipped increments the skipped keyword counter.
func (m *Metrics) IncKeywordsSkipped() {
	if m == nil {
		return
	}
	m.keywordsSkipped.Inc()
}

// IncRejected increments the rejected candidate counter for reason.
func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.candidatesRejected.WithLabelValues(reason).Inc()
}
