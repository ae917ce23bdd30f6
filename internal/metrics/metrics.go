package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeGenerated labels reports built from a validated generation response.
	OutcomeGenerated = "generated"
	// OutcomeFallback labels reports that used the deterministic fallback.
	OutcomeFallback = "fallback"

	ReasonExternalService   = "external_service"
	ReasonMalformedResponse = "malformed_response"
	ReasonCancelled         = "cancelled"
)

var (
	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic_insights",
			Name:      "reports_total",
			Help:      "Total number of insight reports assembled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	fallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinic_insights",
			Name:      "fallbacks_total",
			Help:      "Fallback reports partitioned by the failure that triggered them.",
		},
		[]string{"reason"},
	)

	generationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clinic_insights",
			Name:      "generation_seconds",
			Help:      "Latency of the text generation call in seconds.",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reportsTotal,
		fallbacksTotal,
		generationDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveReport records a report outcome. reason is ignored for generated reports.
func ObserveReport(outcome, reason string) {
	if outcome != OutcomeFallback {
		reportsTotal.WithLabelValues(OutcomeGenerated).Inc()
		return
	}
	reportsTotal.WithLabelValues(OutcomeFallback).Inc()
	fallbacksTotal.WithLabelValues(reason).Inc()
}

// ObserveGeneration records the duration of one generation call.
func ObserveGeneration(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	generationDurationSeconds.Observe(duration.Seconds())
}
