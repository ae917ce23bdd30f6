// Package analysis derives error patterns and risk predictions from raw
// telemetry. Everything here is a pure function of its input.
package analysis

import (
	"fmt"
	"sort"

	"github.com/emirozbir/clinic-insights/internal/models"
)

const (
	maxCommonMessages = 5
	noTimePattern     = "no clear time pattern"
)

type typeAggregate struct {
	errorType      string
	records        []models.ErrorRecord
	severityCounts map[models.Severity]int
	messages       []string
	seenMessages   map[string]struct{}
	components     []string
	seenComponents map[string]struct{}
}

// AnalyzePatterns groups records by error type and summarizes each group.
// The result is ordered by frequency descending, then type ascending.
func AnalyzePatterns(records []models.ErrorRecord) []models.ErrorPattern {
	if len(records) == 0 {
		return []models.ErrorPattern{}
	}

	order := make([]string, 0)
	groups := make(map[string]*typeAggregate)
	for _, rec := range records {
		agg, ok := groups[rec.Type]
		if !ok {
			agg = &typeAggregate{
				errorType:      rec.Type,
				severityCounts: make(map[models.Severity]int),
				seenMessages:   make(map[string]struct{}),
				seenComponents: make(map[string]struct{}),
				messages:       []string{},
				components:     []string{},
			}
			groups[rec.Type] = agg
			order = append(order, rec.Type)
		}
		agg.add(rec)
	}

	patterns := make([]models.ErrorPattern, 0, len(order))
	for _, errorType := range order {
		agg := groups[errorType]
		patterns = append(patterns, models.ErrorPattern{
			Type:               agg.errorType,
			Frequency:          len(agg.records),
			Severity:           agg.dominantSeverity(),
			CommonMessages:     agg.messages,
			TimePattern:        describeTimePattern(agg.records),
			AffectedComponents: agg.components,
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		return patterns[i].Type < patterns[j].Type
	})
	return patterns
}

func (agg *typeAggregate) add(rec models.ErrorRecord) {
	agg.records = append(agg.records, rec)
	agg.severityCounts[rec.Severity]++

	if _, seen := agg.seenMessages[rec.Message]; !seen && len(agg.messages) < maxCommonMessages {
		agg.seenMessages[rec.Message] = struct{}{}
		agg.messages = append(agg.messages, rec.Message)
	}
	if rec.Component != "" {
		if _, seen := agg.seenComponents[rec.Component]; !seen {
			agg.seenComponents[rec.Component] = struct{}{}
			agg.components = append(agg.components, rec.Component)
		}
	}
}

// dominantSeverity is the mode of the group; ties go to the alphabetically first name.
func (agg *typeAggregate) dominantSeverity() models.Severity {
	var (
		best      models.Severity
		bestCount int
	)
	for sev, count := range agg.severityCounts {
		if count > bestCount || (count == bestCount && sev < best) {
			best, bestCount = sev, count
		}
	}
	return best
}

func describeTimePattern(records []models.ErrorRecord) string {
	buckets := hourBuckets(records)
	hour, count := peakHour(buckets)
	if count < 1 {
		return noTimePattern
	}
	return fmt.Sprintf("Peak activity at %d:00 (%d errors)", hour, count)
}

// hourBuckets counts records per UTC hour of day.
func hourBuckets(records []models.ErrorRecord) [24]int {
	var buckets [24]int
	for _, rec := range records {
		buckets[rec.OccurredAt.UTC().Hour()]++
	}
	return buckets
}

// peakHour returns the earliest hour holding the maximum count.
func peakHour(buckets [24]int) (int, int) {
	hour, count := 0, 0
	for h, c := range buckets {
		if c > count {
			hour, count = h, c
		}
	}
	return hour, count
}
