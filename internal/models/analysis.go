package models

import "time"

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

type HealthTrend string

const (
	TrendImproving HealthTrend = "improving"
	TrendStable    HealthTrend = "stable"
	TrendDeclining HealthTrend = "declining"
)

// ErrorPattern summarizes every record of one error type within a window.
type ErrorPattern struct {
	Type               string   `json:"type"`
	Frequency          int      `json:"frequency"`
	Severity           Severity `json:"severity"`
	CommonMessages     []string `json:"commonMessages"`
	TimePattern        string   `json:"timePattern"`
	AffectedComponents []string `json:"affectedComponents"`
}

// PatternAssessment is the generation service's qualitative take on one pattern.
type PatternAssessment struct {
	Type      string `json:"type"`
	RiskLevel string `json:"riskLevel"`
	Trend     string `json:"trend"`
	Impact    string `json:"impact"`
}

type PredictiveInsight struct {
	RiskLevel       RiskLevel `json:"riskLevel"`
	Likelihood      int       `json:"likelihood"`
	Timeframe       string    `json:"timeframe"`
	Description     string    `json:"description"`
	Recommendations []string  `json:"recommendations"`
	AffectedSystems []string  `json:"affectedSystems"`
}

type Recommendations struct {
	Immediate []string `json:"immediate"`
	ShortTerm []string `json:"shortTerm"`
	LongTerm  []string `json:"longTerm"`
}

type SystemHealthSnapshot struct {
	Score       int         `json:"score"`
	Trend       HealthTrend `json:"trend"`
	RiskFactors []string    `json:"riskFactors"`
}

// AIInsightReport is the Insight Assembler output. Every field is populated on
// both the generated and the fallback path.
type AIInsightReport struct {
	Summary            string               `json:"summary"`
	Patterns           []ErrorPattern       `json:"patterns"`
	PatternAssessments []PatternAssessment  `json:"patternAssessments"`
	Predictions        []PredictiveInsight  `json:"predictions"`
	Recommendations    Recommendations      `json:"recommendations"`
	SystemHealth       SystemHealthSnapshot `json:"systemHealth"`
}

// HealthReport is the composed result handed to callers.
type HealthReport struct {
	ID             string              `json:"id"`
	OrganizationID int64               `json:"organization_id"`
	Timeframe      Timeframe           `json:"timeframe"`
	GeneratedAt    time.Time           `json:"generated_at"`
	ErrorCount     int                 `json:"error_count"`
	SampleCount    int                 `json:"sample_count"`
	Patterns       []ErrorPattern      `json:"patterns"`
	Predictions    []PredictiveInsight `json:"predictions"`
	Insights       AIInsightReport     `json:"insights"`
	Fallback       bool                `json:"fallback"`
}
