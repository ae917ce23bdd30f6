package models

import "time"

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ErrorRecord is one failure observed in an organization. Records are written
// by the application logging layer and are read-only here.
type ErrorRecord struct {
	ID             int64     `json:"id,omitempty"`
	OrganizationID int64     `json:"organization_id"`
	Type           string    `json:"type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Component      string    `json:"component,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PerformanceSample is one metric observation.
type PerformanceSample struct {
	ID             int64     `json:"id,omitempty"`
	OrganizationID int64     `json:"organization_id"`
	Metric         string    `json:"metric"`
	Value          float64   `json:"value"`
	OccurredAt     time.Time `json:"occurred_at"`
}
