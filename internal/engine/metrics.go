package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRefreshTotal          = "match_refresh_total"
	MetricRefreshErrors         = "match_refresh_errors_total"
	MetricRefreshDuration       = "match_refresh_duration_seconds"
	MetricCandidatesEvaluated   = "match_candidates_evaluated_total"
	MetricCandidatesSkipped     = "match_candidates_skipped_total"
	MetricLastRefreshTimestamp  = "match_last_refresh_timestamp"
	MetricLastRefreshMatchCount = "match_last_refresh_match_count"
	MetricRecommendationsServed = "match_recommendations_served_total"
)

// Metrics contains Prometheus metrics for the matching engine.
// All operations are thread-safe.
type Metrics struct {
	refreshTotal          prometheus.Counter
	refreshErrors         prometheus.Counter
	refreshDuration       prometheus.Histogram
	candidatesEvaluated   prometheus.Counter
	candidatesSkipped     prometheus.Counter
	lastRefreshTimestamp  prometheus.Gauge
	lastRefreshMatchCount prometheus.Gauge
	recommendationsServed prometheus.Counter
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		refreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRefreshTotal,
			Help: "Total number of match refresh operations",
		}),
		refreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRefreshErrors,
			Help: "Total number of failed match refresh operations",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRefreshDuration,
			Help:    "Histogram of match refresh duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}),
		candidatesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCandidatesEvaluated,
			Help: "Total number of candidates scored across all refreshes",
		}),
		candidatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCandidatesSkipped,
			Help: "Total number of candidates skipped due to scoring failures",
		}),
		lastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRefreshTimestamp,
			Help: "Unix timestamp of the last completed match refresh",
		}),
		lastRefreshMatchCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRefreshMatchCount,
			Help: "Number of matches produced by the last completed refresh",
		}),
		recommendationsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRecommendationsServed,
			Help: "Total number of mission recommendation requests served",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.refreshTotal,
		m.refreshErrors,
		m.refreshDuration,
		m.candidatesEvaluated,
		m.candidatesSkipped,
		m.lastRefreshTimestamp,
		m.lastRefreshMatchCount,
		m.recommendationsServed,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRefreshTotal increments the refresh counter.
func (m *Metrics) IncRefreshTotal() {
	if m != nil {
		m.refreshTotal.Inc()
	}
}

// IncRefreshErrors increments the refresh error counter.
func (m *Metrics) IncRefreshErrors() {
	if m != nil {
		m.refreshErrors.Inc()
	}
}

// ObserveRefreshDuration records a refresh duration sample.
func (m *Metrics) ObserveRefreshDuration(seconds float64) {
	if m != nil {
		m.refreshDuration.Observe(seconds)
	}
}

// AddCandidatesEvaluated adds to the evaluated-candidate counter.
func (m *Metrics) AddCandidatesEvaluated(n int) {
	if m != nil {
		m.candidatesEvaluated.Add(float64(n))
	}
}

// AddCandidatesSkipped adds to the skipped-candidate counter.
func (m *Metrics) AddCandidatesSkipped(n int) {
	if m != nil {
		m.candidatesSkipped.Add(float64(n))
	}
}

// SetLastRefresh records the completion time and match count of a refresh.
func (m *Metrics) SetLastRefresh(unixTime float64, matches int) {
	if m != nil {
		m.lastRefreshTimestamp.Set(unixTime)
		m.lastRefreshMatchCount.Set(float64(matches))
	}
}

// IncRecommendationsServed increments the recommendations counter.
func (m *Metrics) IncRecommendationsServed() {
	if m != nil {
		m.recommendationsServed.Inc()
	}
}
