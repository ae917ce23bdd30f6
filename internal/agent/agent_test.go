package agent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emirozbir/clinic-insights/internal/models"
)

const validResponse = `Here is the analysis:
{
  "summary": "Database timeouts dominate the window.",
  "patterns": [{"type": "DatabaseError", "riskLevel": "high", "trend": "increasing", "impact": "Appointment booking slows down"}],
  "predictions": [
    {"riskLevel": "HIGH", "likelihood": 140, "timeframe": "next 24 hours", "description": "Connection pool exhaustion",
     "recommendations": ["Raise pool size"], "affectedSystems": ["db-pool"]},
    {"riskLevel": "low", "likelihood": -3.4, "timeframe": "next week", "description": "Validation noise",
     "recommendations": [], "affectedSystems": []}
  ],
  "recommendations": {"immediate": ["Restart pool"], "shortTerm": ["Add indexes"], "longTerm": ["Move to read replicas"]},
  "systemHealth": {"score": 61.6, "trend": "Declining", "riskFactors": ["Database saturation"]}
}`

type fakeLLM struct {
	response string
	err      error
	block    bool
	calls    int
	prompt   string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.response, f.err
}

type memoryStore struct {
	errors  []models.ErrorRecord
	samples []models.PerformanceSample
	err     error
}

func (m *memoryStore) QueryErrors(ctx context.Context, organizationID int64, since time.Time) ([]models.ErrorRecord, error) {
	return m.errors, m.err
}

func (m *memoryStore) QueryPerformance(ctx context.Context, organizationID int64, since time.Time) ([]models.PerformanceSample, error) {
	return m.samples, m.err
}

var testNow = time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)

func sampleRecords(n int) []models.ErrorRecord {
	records := make([]models.ErrorRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.ErrorRecord{
			OrganizationID: 1,
			Type:           "DatabaseError",
			Severity:       models.SeverityHigh,
			Message:        "connection timeout",
			Component:      "db-pool",
			OccurredAt:     testNow.Add(-time.Duration(i) * time.Minute),
		})
	}
	return records
}

func assertFallback(t *testing.T, report models.AIInsightReport) {
	t.Helper()
	if !reflect.DeepEqual(report, FallbackReport()) {
		t.Fatalf("expected fallback report, got %+v", report)
	}
	if report.SystemHealth.Score != 75 || report.SystemHealth.Trend != models.TrendStable {
		t.Fatalf("unexpected fallback health %+v", report.SystemHealth)
	}
	if len(report.Patterns) != 0 || len(report.Predictions) != 0 {
		t.Fatalf("expected empty patterns and predictions in fallback")
	}
}

func TestAssembleFallbackOnFailures(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{name: "not json", llm: &fakeLLM{response: "not json"}},
		{name: "service error", llm: &fakeLLM{err: errors.New("502 bad gateway")}},
		{name: "missing summary", llm: &fakeLLM{response: `{"patterns": [], "predictions": [], "recommendations": {"immediate": [], "shortTerm": [], "longTerm": []}, "systemHealth": {"score": 80, "trend": "stable", "riskFactors": []}}`}},
		{name: "score is a string", llm: &fakeLLM{response: strings.Replace(validResponse, `"score": 61.6`, `"score": "61"`, 1)}},
		{name: "patterns not an array", llm: &fakeLLM{response: strings.Replace(validResponse, `"patterns": [{"type": "DatabaseError", "riskLevel": "high", "trend": "increasing", "impact": "Appointment booking slows down"}]`, `"patterns": {}`, 1)}},
		{name: "unknown risk level", llm: &fakeLLM{response: strings.Replace(validResponse, `"riskLevel": "HIGH"`, `"riskLevel": "SEVERE"`, 1)}},
		{name: "unknown trend", llm: &fakeLLM{response: strings.Replace(validResponse, `"trend": "Declining"`, `"trend": "sideways"`, 1)}},
		{name: "null recommendations", llm: &fakeLLM{response: strings.Replace(validResponse, `"immediate": ["Restart pool"]`, `"immediate": null`, 1)}},
		{name: "non-string affected system", llm: &fakeLLM{response: strings.Replace(validResponse, `"affectedSystems": ["db-pool"]`, `"affectedSystems": [42]`, 1)}},
		{name: "truncated json", llm: &fakeLLM{response: validResponse[:len(validResponse)-10]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&memoryStore{}, tt.llm, zap.NewNop(), time.Second)
			report, fallback := a.Assemble(context.Background(), 1, sampleRecords(3), nil, nil)
			if !fallback {
				t.Fatalf("expected fallback flag")
			}
			assertFallback(t, report)
			if tt.llm.calls != 1 {
				t.Fatalf("expected exactly one generation call, got %d", tt.llm.calls)
			}
		})
	}
}

func TestAssembleValidResponse(t *testing.T) {
	llm := &fakeLLM{response: validResponse}
	a := New(&memoryStore{}, llm, zap.NewNop(), time.Second)
	patterns := []models.ErrorPattern{{Type: "DatabaseError", Frequency: 3, Severity: models.SeverityHigh}}

	report, fallback := a.Assemble(context.Background(), 1, sampleRecords(3), nil, patterns)
	if fallback {
		t.Fatalf("expected generated report")
	}
	if report.Summary != "Database timeouts dominate the window." {
		t.Fatalf("unexpected summary %q", report.Summary)
	}
	if len(report.Patterns) != 1 || report.Patterns[0].Type != "DatabaseError" {
		t.Fatalf("expected computed patterns on report, got %+v", report.Patterns)
	}
	if len(report.PatternAssessments) != 1 || report.PatternAssessments[0].Impact == "" {
		t.Fatalf("unexpected assessments %+v", report.PatternAssessments)
	}
	if len(report.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(report.Predictions))
	}
	if report.Predictions[0].Likelihood != 100 || report.Predictions[1].Likelihood != 0 {
		t.Fatalf("expected clamped likelihoods, got %d and %d", report.Predictions[0].Likelihood, report.Predictions[1].Likelihood)
	}
	if report.Predictions[1].RiskLevel != models.RiskLow {
		t.Fatalf("expected normalized risk level, got %s", report.Predictions[1].RiskLevel)
	}
	if report.SystemHealth.Score != 62 || report.SystemHealth.Trend != models.TrendDeclining {
		t.Fatalf("unexpected health %+v", report.SystemHealth)
	}
	if report.Recommendations.LongTerm[0] != "Move to read replicas" {
		t.Fatalf("unexpected recommendations %+v", report.Recommendations)
	}
}

func TestAssemblePromptCarriesPayload(t *testing.T) {
	llm := &fakeLLM{response: validResponse}
	a := New(&memoryStore{}, llm, zap.NewNop(), time.Second)
	samples := []models.PerformanceSample{{OrganizationID: 1, Metric: "api_latency_ms", Value: 250, OccurredAt: testNow}}
	patterns := []models.ErrorPattern{{Type: "DatabaseError", Frequency: 12, TimePattern: "Peak activity at 17:00 (12 errors)"}}

	a.Assemble(context.Background(), 1, sampleRecords(12), samples, patterns)

	for _, want := range []string{`"totalErrors": 12`, "api_latency_ms", "Peak activity at 17:00 (12 errors)", `"systemHealth"`} {
		if !strings.Contains(llm.prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
	if strings.Count(llm.prompt, `"message": "connection timeout"`) != maxRecentErrors {
		t.Fatalf("expected %d recent errors in prompt", maxRecentErrors)
	}
}

func TestAssembleTimeoutFallsBack(t *testing.T) {
	llm := &fakeLLM{block: true}
	a := New(&memoryStore{}, llm, zap.NewNop(), 20*time.Millisecond)

	report, fallback := a.Assemble(context.Background(), 1, nil, nil, nil)
	if !fallback {
		t.Fatalf("expected fallback on timeout")
	}
	assertFallback(t, report)
}

func TestAssembleCancelledContextFallsBack(t *testing.T) {
	llm := &fakeLLM{block: true}
	a := New(&memoryStore{}, llm, zap.NewNop(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	report, fallback := a.Assemble(ctx, 1, nil, nil, nil)
	if !fallback {
		t.Fatalf("expected fallback on cancellation")
	}
	assertFallback(t, report)
}

func TestAssembleAlreadyCancelledSkipsCall(t *testing.T) {
	llm := &fakeLLM{response: validResponse}
	a := New(&memoryStore{}, llm, zap.NewNop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, fallback := a.Assemble(ctx, 1, nil, nil, nil)
	if !fallback || llm.calls != 0 {
		t.Fatalf("expected fallback without calling the service, calls=%d", llm.calls)
	}
	assertFallback(t, report)
}

func TestFallbackReportIsDeterministic(t *testing.T) {
	first := FallbackReport()
	first.Recommendations.Immediate[0] = "mutated"
	if reflect.DeepEqual(first, FallbackReport()) {
		t.Fatalf("fallback slices must not be shared between calls")
	}
	if !reflect.DeepEqual(FallbackReport(), FallbackReport()) {
		t.Fatalf("fallback must be identical across calls")
	}
}

func TestGenerateReport(t *testing.T) {
	store := &memoryStore{errors: sampleRecords(12)}
	a := New(store, &fakeLLM{response: validResponse}, zap.NewNop(), time.Second).WithClock(func() time.Time { return testNow })

	report, err := a.GenerateReport(context.Background(), InsightRequest{OrganizationID: 1, Timeframe: "24h"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.ID == "" || report.Timeframe != models.TimeframeDay || !report.GeneratedAt.Equal(testNow) {
		t.Fatalf("unexpected report header %+v", report)
	}
	if report.ErrorCount != 12 || len(report.Patterns) != 1 || report.Patterns[0].Frequency != 12 {
		t.Fatalf("unexpected patterns %+v", report.Patterns)
	}
	if len(report.Predictions) == 0 {
		t.Fatalf("expected heuristic predictions")
	}
	if report.Fallback || report.Insights.SystemHealth.Score != 62 {
		t.Fatalf("expected generated insights, got %+v", report.Insights.SystemHealth)
	}
}

func TestGenerateReportDefaultsTimeframe(t *testing.T) {
	a := New(&memoryStore{}, &fakeLLM{response: "not json"}, zap.NewNop(), time.Second)

	report, err := a.GenerateReport(context.Background(), InsightRequest{OrganizationID: 4})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Timeframe != models.TimeframeWeek {
		t.Fatalf("expected 7d default, got %s", report.Timeframe)
	}
	if !report.Fallback {
		t.Fatalf("expected fallback report")
	}
	if len(report.Predictions) != 1 || report.Predictions[0].Likelihood != 20 {
		t.Fatalf("expected sparse-data prediction, got %+v", report.Predictions)
	}
}

func TestGenerateReportPropagatesCallerErrors(t *testing.T) {
	tests := []struct {
		name    string
		store   *memoryStore
		req     InsightRequest
		wantErr error
	}{
		{name: "bad organization", store: &memoryStore{}, req: InsightRequest{OrganizationID: 0}, wantErr: models.ErrInvalidArgument},
		{name: "bad timeframe", store: &memoryStore{}, req: InsightRequest{OrganizationID: 1, Timeframe: "90d"}, wantErr: models.ErrInvalidArgument},
		{name: "storage failure", store: &memoryStore{err: errors.New("disk I/O error")}, req: InsightRequest{OrganizationID: 1}, wantErr: models.ErrDataAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{response: validResponse}
			a := New(tt.store, llm, zap.NewNop(), time.Second)
			_, err := a.GenerateReport(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if llm.calls != 0 {
				t.Fatalf("generation must not run without data")
			}
		})
	}
}
