package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VisionMetrics records per-provider detection attempts for the fallback chain.
type VisionMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewVisionMetrics registers the vision provider metrics on the provided registerer.
func NewVisionMetrics(reg prometheus.Registerer) *VisionMetrics {
	if reg == nil {
		return &VisionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecoscan",
		Name:      "vision_request_duration_seconds",
		Help:      "Duration of vision provider requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoscan",
		Name:      "vision_provider_attempts",
		Help:      "Detection attempts per vision provider.",
	}, []string{"provider"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecoscan",
		Name:      "vision_provider_failures",
		Help:      "Failed detection attempts per vision provider.",
	}, []string{"provider"})
	reg.MustRegister(duration, attempts, failures)
	return &VisionMetrics{
		duration: duration,
		attempts: attempts,
		failures: failures,
	}
}

// ObserveRequest records one provider attempt with its duration.
func (v *VisionMetrics) ObserveRequest(provider string, duration time.Duration) {
	if v == nil || v.attempts == nil {
		return
	}
	v.attempts.WithLabelValues(normalizeLabel(provider)).Inc()
	v.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncFailure increments the failure counter for the named provider.
func (v *VisionMetrics) IncFailure(provider string) {
	if v == nil || v.failures == nil {
		return
	}
	v.failures.WithLabelValues(normalizeLabel(provider)).Inc()
}
