package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamRequests *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	fallbacks        *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg means the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		upstreamRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightstock_upstream_requests_total",
				Help: "Upstream finance API calls by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightstock_cache_lookups_total",
				Help: "Data cache lookups by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightstock_fallbacks_total",
				Help: "Responses served from a fallback source",
			},
			[]string{"kind", "source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightstock_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lightstock_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstreamRequest counts one upstream call; result is "ok" or an error class.
func (r *Recorder) RecordUpstreamRequest(endpoint, result string) {
	r.upstreamRequests.WithLabelValues(endpoint, result).Inc()
}

// RecordCacheLookup counts a data cache hit or miss.
func (r *Recorder) RecordCacheLookup(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(kind, outcome).Inc()
}

// RecordFallback counts a response served from historical or mock data.
func (r *Recorder) RecordFallback(kind, source string) {
	r.fallbacks.WithLabelValues(kind, source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) RecordUpstreamRequest(string, string) {}
func (Noop) RecordCacheLookup(string, bool)       {}
func (Noop) RecordFallback(string, string)        {}
func (Noop) RecordError(string)                   {}
func (Noop) RecordLatency(string, float64)        {}
