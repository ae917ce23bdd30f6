package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestObserveReport(t *testing.T) {
	generatedBefore := testutil.ToFloat64(reportsTotal.WithLabelValues(OutcomeGenerated))
	fallbackBefore := testutil.ToFloat64(reportsTotal.WithLabelValues(OutcomeFallback))
	reasonBefore := testutil.ToFloat64(fallbacksTotal.WithLabelValues(ReasonMalformedResponse))

	ObserveReport(OutcomeGenerated, "")
	ObserveReport(OutcomeFallback, ReasonMalformedResponse)
	ObserveGeneration(-time.Second)

	if got := testutil.ToFloat64(reportsTotal.WithLabelValues(OutcomeGenerated)) - generatedBefore; got != 1 {
		t.Fatalf("expected one generated report, got %v", got)
	}
	if got := testutil.ToFloat64(reportsTotal.WithLabelValues(OutcomeFallback)) - fallbackBefore; got != 1 {
		t.Fatalf("expected one fallback report, got %v", got)
	}
	if got := testutil.ToFloat64(fallbacksTotal.WithLabelValues(ReasonMalformedResponse)) - reasonBefore; got != 1 {
		t.Fatalf("expected one malformed fallback, got %v", got)
	}
}
