package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/emirozbir/clinic-insights/internal/models"
)

// Heuristic constants. These are fixed, not learned.
const (
	minRecordsForPrediction = 10
	peakHourFactor          = 1.5
	minComponentThreshold   = 5
	componentShareThreshold = 0.10
)

var peakHourAffectedSystems = []string{"appointments", "patient-records", "prescriptions", "lab-results"}

// Predict applies the peak-hour and failing-component heuristics to records.
// Sparse input always yields exactly one informational prediction.
func Predict(records []models.ErrorRecord) []models.PredictiveInsight {
	if len(records) < minRecordsForPrediction {
		return []models.PredictiveInsight{insufficientDataPrediction(len(records))}
	}

	predictions := make([]models.PredictiveInsight, 0, 2)
	if hours := peakHours(records); len(hours) > 0 {
		predictions = append(predictions, peakHourPrediction(hours))
	}
	if components := failingComponents(records); len(components) > 0 {
		predictions = append(predictions, failingComponentPrediction(components))
	}
	return predictions
}

func insufficientDataPrediction(n int) models.PredictiveInsight {
	return models.PredictiveInsight{
		RiskLevel:   models.RiskLow,
		Likelihood:  20,
		Timeframe:   "next 7 days",
		Description: fmt.Sprintf("Insufficient data for reliable predictions (%d errors recorded, at least %d needed)", n, minRecordsForPrediction),
		Recommendations: []string{
			"Increase error logging coverage across application modules",
			"Enable performance monitoring for critical workflows",
		},
		AffectedSystems: []string{"monitoring"},
	}
}

// peakHours returns, in ascending order, the UTC hours whose count exceeds
// peakHourFactor times the 24-hour average.
func peakHours(records []models.ErrorRecord) []int {
	buckets := hourBuckets(records)
	threshold := peakHourFactor * float64(len(records)) / 24
	var hours []int
	for h, c := range buckets {
		if float64(c) > threshold {
			hours = append(hours, h)
		}
	}
	return hours
}

func peakHourPrediction(hours []int) models.PredictiveInsight {
	labels := make([]string, len(hours))
	for i, h := range hours {
		labels[i] = fmt.Sprintf("%d:00", h)
	}
	return models.PredictiveInsight{
		RiskLevel:   models.RiskMedium,
		Likelihood:  70,
		Timeframe:   "next 24 hours",
		Description: fmt.Sprintf("Error volume concentrates at peak hours (%s); similar load is likely to cause errors again", strings.Join(labels, ", ")),
		Recommendations: []string{
			"Scale server resources ahead of peak hours",
			"Apply rate limiting to high-traffic endpoints",
			"Monitor database connections and storage capacity during peaks",
		},
		AffectedSystems: append([]string(nil), peakHourAffectedSystems...),
	}
}

// failingComponents returns, in first-seen order, components whose error count
// strictly exceeds max(5, 10% of all records).
func failingComponents(records []models.ErrorRecord) []string {
	threshold := math.Max(minComponentThreshold, componentShareThreshold*float64(len(records)))

	order := make([]string, 0)
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Component == "" {
			continue
		}
		if _, ok := counts[rec.Component]; !ok {
			order = append(order, rec.Component)
		}
		counts[rec.Component]++
	}

	var failing []string
	for _, component := range order {
		if float64(counts[component]) > threshold {
			failing = append(failing, component)
		}
	}
	return failing
}

func failingComponentPrediction(components []string) models.PredictiveInsight {
	return models.PredictiveInsight{
		RiskLevel:   models.RiskHigh,
		Likelihood:  60,
		Timeframe:   "next 3 days",
		Description: fmt.Sprintf("Components showing elevated error rates may fail: %s", strings.Join(components, ", ")),
		Recommendations: []string{
			"Review recent logs for the affected components",
			"Check external dependencies and integrations",
			"Prepare a rollback plan for recent changes",
		},
		AffectedSystems: components,
	}
}
