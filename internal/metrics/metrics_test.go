package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPipelineMetrics(t *testing.T) {
	p := New(prometheus.NewRegistry())

	p.ObserveExtraction("nlp", 0.9)
	p.ObserveExtraction("nlp", 0.4)
	p.ObserveExtraction("nlp+ai", 0.85)
	p.ObserveEscalation(OutcomeAIEnhanced)
	p.ObserveAIFailure()
	p.ObserveAILatency(1500 * time.Millisecond)
	p.ObserveCache(true)
	p.ObserveCache(false)
	p.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.extractions.WithLabelValues("nlp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.extractions.WithLabelValues("nlp+ai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.escalations.WithLabelValues(OutcomeAIEnhanced)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.aiFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.cacheRequests.WithLabelValues("miss")))
}

func TestNilPipelineIsNoop(t *testing.T) {
	var p *Pipeline
	assert.NotPanics(t, func() {
		p.ObserveExtraction("nlp", 0.5)
		p.ObserveEscalation(OutcomeLocalOnly)
		p.ObserveAIFailure()
		p.ObserveAILatency(time.Second)
		p.ObserveCache(true)
	})
}
