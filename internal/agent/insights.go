package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/emirozbir/clinic-insights/internal/models"
)

const (
	maxRecentErrors  = 10
	maxRecentSamples = 20
)

type insightPayload struct {
	TotalErrors        int                 `json:"totalErrors"`
	ErrorsByType       []typeSeverityCount `json:"errorsByType"`
	RecentErrors       []recentError       `json:"recentErrors"`
	PerformanceMetrics []recentSample      `json:"performanceMetrics"`
}

type typeSeverityCount struct {
	Type     string          `json:"type"`
	Severity models.Severity `json:"severity"`
	Count    int             `json:"count"`
}

type recentError struct {
	Type       string          `json:"type"`
	Severity   models.Severity `json:"severity"`
	Message    string          `json:"message"`
	Component  string          `json:"component,omitempty"`
	OccurredAt time.Time       `json:"timestamp"`
}

type recentSample struct {
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	OccurredAt time.Time `json:"timestamp"`
}

func buildPayload(records []models.ErrorRecord, samples []models.PerformanceSample) insightPayload {
	payload := insightPayload{
		TotalErrors:        len(records),
		ErrorsByType:       countByTypeAndSeverity(records),
		RecentErrors:       []recentError{},
		PerformanceMetrics: []recentSample{},
	}

	recent := append([]models.ErrorRecord(nil), records...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].OccurredAt.After(recent[j].OccurredAt)
	})
	for i, rec := range recent {
		if i >= maxRecentErrors {
			break
		}
		payload.RecentErrors = append(payload.RecentErrors, recentError{
			Type:       rec.Type,
			Severity:   rec.Severity,
			Message:    rec.Message,
			Component:  rec.Component,
			OccurredAt: rec.OccurredAt.UTC(),
		})
	}

	recentSamples := append([]models.PerformanceSample(nil), samples...)
	sort.SliceStable(recentSamples, func(i, j int) bool {
		return recentSamples[i].OccurredAt.After(recentSamples[j].OccurredAt)
	})
	for i, s := range recentSamples {
		if i >= maxRecentSamples {
			break
		}
		payload.PerformanceMetrics = append(payload.PerformanceMetrics, recentSample{
			Metric:     s.Metric,
			Value:      s.Value,
			OccurredAt: s.OccurredAt.UTC(),
		})
	}

	return payload
}

func countByTypeAndSeverity(records []models.ErrorRecord) []typeSeverityCount {
	type key struct {
		errorType string
		severity  models.Severity
	}
	counts := make(map[key]int)
	for _, rec := range records {
		counts[key{rec.Type, rec.Severity}]++
	}

	result := make([]typeSeverityCount, 0, len(counts))
	for k, c := range counts {
		result = append(result, typeSeverityCount{Type: k.errorType, Severity: k.severity, Count: c})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return result[i].Severity < result[j].Severity
	})
	return result
}

func buildInsightPrompt(payload insightPayload, patterns []models.ErrorPattern) (string, error) {
	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	if patterns == nil {
		patterns = []models.ErrorPattern{}
	}
	patternsJSON, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal patterns: %w", err)
	}

	return fmt.Sprintf(`You are an expert site reliability engineer reviewing the error telemetry of a clinic management application (patients, prescriptions, labs, appointments). Analyze the data below and produce a system health report.

ERROR DATA:
%s

DETECTED PATTERNS:
%s

TASK:
1. Summarize the overall state of the system in two or three sentences
2. Assess each significant error pattern (risk level, trend, impact)
3. Predict operational risks for the near future with a likelihood from 0 to 100
4. Recommend immediate, short-term and long-term actions
5. Score overall system health from 0 to 100 and give its trend

Risk levels are LOW, MEDIUM, HIGH or CRITICAL. Trend is one of improving, stable or declining.

Respond with a single JSON object and nothing else, using exactly this structure:
{
  "summary": "string",
  "patterns": [{"type": "string", "riskLevel": "string", "trend": "string", "impact": "string"}],
  "predictions": [
    {"riskLevel": "string", "likelihood": 0, "timeframe": "string", "description": "string",
     "recommendations": ["string"], "affectedSystems": ["string"]}
  ],
  "recommendations": {"immediate": ["string"], "shortTerm": ["string"], "longTerm": ["string"]},
  "systemHealth": {"score": 0, "trend": "string", "riskFactors": ["string"]}
}`,
		payloadJSON,
		patternsJSON,
	), nil
}

// FallbackReport is returned whenever no valid generated report is available.
// Its content is fixed; each call returns fresh slices.
func FallbackReport() models.AIInsightReport {
	return models.AIInsightReport{
		Summary:            "AI-generated analysis is currently unavailable. This report contains baseline guidance; review the computed error patterns and heuristic predictions for details.",
		Patterns:           []models.ErrorPattern{},
		PatternAssessments: []models.PatternAssessment{},
		Predictions:        []models.PredictiveInsight{},
		Recommendations: models.Recommendations{
			Immediate: []string{
				"Review recent high and critical severity errors",
				"Verify that core clinic services are reachable",
			},
			ShortTerm: []string{
				"Expand error and performance logging coverage",
				"Configure alerts for error rate spikes",
			},
			LongTerm: []string{
				"Establish a regular system health review",
				"Adopt automated monitoring and anomaly detection",
			},
		},
		SystemHealth: models.SystemHealthSnapshot{
			Score:       75,
			Trend:       models.TrendStable,
			RiskFactors: []string{"Limited monitoring data", "Analysis constraints"},
		},
	}
}
