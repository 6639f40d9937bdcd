// Package metrics exposes Prometheus instrumentation for the extraction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Escalation outcomes.
const (
	OutcomeLocalOnly     = "local_only"
	OutcomeAIEnhanced    = "ai_enhanced"
	OutcomeAIUnavailable = "ai_unavailable"
	OutcomeAIFailed      = "ai_failed"
)

// Pipeline holds the pipeline counters and histograms. A nil *Pipeline is
// valid and records nothing.
type Pipeline struct {
	extractions   *prometheus.CounterVec
	escalations   *prometheus.CounterVec
	aiFailures    prometheus.Counter
	cacheRequests *prometheus.CounterVec
	confidence    prometheus.Histogram
	aiLatency     prometheus.Histogram
}

// New registers the pipeline metrics with reg. Pass a fresh registry in tests
// to avoid duplicate registration.
func New(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		extractions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poon_extractions_total",
			Help: "Total number of assembled spending entries by processing method",
		}, []string{"method"}),
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poon_escalations_total",
			Help: "Fallback decisions by outcome",
		}, []string{"outcome"}),
		aiFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "poon_ai_failures_total",
			Help: "AI enhancement calls that failed or returned nothing usable",
		}),
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "poon_cache_requests_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),
		confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poon_extraction_confidence",
			Help:    "Confidence of final extraction results",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
		aiLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poon_ai_request_duration_seconds",
			Help:    "Duration of AI enhancement calls including retries",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// ObserveExtraction records a finished entry or parse result.
func (p *Pipeline) ObserveExtraction(method string, confidence float64) {
	if p == nil {
		return
	}
	p.extractions.WithLabelValues(method).Inc()
	p.confidence.Observe(confidence)
}

// ObserveEscalation records the fallback decision outcome.
func (p *Pipeline) ObserveEscalation(outcome string) {
	if p == nil {
		return
	}
	p.escalations.WithLabelValues(outcome).Inc()
}

// ObserveAIFailure records a failed AI call.
func (p *Pipeline) ObserveAIFailure() {
	if p == nil {
		return
	}
	p.aiFailures.Inc()
}

// ObserveAILatency records how long an AI call took.
func (p *Pipeline) ObserveAILatency(d time.Duration) {
	if p == nil {
		return
	}
	p.aiLatency.Observe(d.Seconds())
}

// ObserveCache records a cache hit or miss.
func (p *Pipeline) ObserveCache(hit bool) {
	if p == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheRequests.WithLabelValues(result).Inc()
}
