package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/emirozbir/clinic-insights/internal/models"
)

type jsonObject map[string]json.RawMessage

// parseInsightResponse validates generation output against the report schema.
// Any deviation yields an error wrapping models.ErrMalformedResponse.
// Numeric fields are clamped into [0,100]; Patterns is left for the caller.
func parseInsightResponse(text string) (models.AIInsightReport, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return models.AIInsightReport{}, malformed("%v", err)
	}

	root, err := asObject(raw, "response")
	if err != nil {
		return models.AIInsightReport{}, err
	}

	var report models.AIInsightReport

	if report.Summary, err = root.str("summary"); err != nil {
		return models.AIInsightReport{}, err
	}
	if report.PatternAssessments, err = parseAssessments(root); err != nil {
		return models.AIInsightReport{}, err
	}
	if report.Predictions, err = parsePredictions(root); err != nil {
		return models.AIInsightReport{}, err
	}
	if report.Recommendations, err = parseRecommendations(root); err != nil {
		return models.AIInsightReport{}, err
	}
	if report.SystemHealth, err = parseSystemHealth(root); err != nil {
		return models.AIInsightReport{}, err
	}
	report.Patterns = []models.ErrorPattern{}

	return report, nil
}

// extractJSONObject returns the outermost {...} span of text, which lets
// responses wrapped in prose or code fences through.
func extractJSONObject(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	candidate := []byte(text[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return candidate, nil
}

func parseAssessments(root jsonObject) ([]models.PatternAssessment, error) {
	items, err := root.array("patterns")
	if err != nil {
		return nil, err
	}
	assessments := make([]models.PatternAssessment, 0, len(items))
	for i, item := range items {
		obj, err := asObject(item, fmt.Sprintf("patterns[%d]", i))
		if err != nil {
			return nil, err
		}
		var a models.PatternAssessment
		if a.Type, err = obj.str("type"); err != nil {
			return nil, err
		}
		if a.RiskLevel, err = obj.str("riskLevel"); err != nil {
			return nil, err
		}
		if a.Trend, err = obj.str("trend"); err != nil {
			return nil, err
		}
		if a.Impact, err = obj.str("impact"); err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, nil
}

func parsePredictions(root jsonObject) ([]models.PredictiveInsight, error) {
	items, err := root.array("predictions")
	if err != nil {
		return nil, err
	}
	predictions := make([]models.PredictiveInsight, 0, len(items))
	for i, item := range items {
		obj, err := asObject(item, fmt.Sprintf("predictions[%d]", i))
		if err != nil {
			return nil, err
		}

		var p models.PredictiveInsight
		level, err := obj.str("riskLevel")
		if err != nil {
			return nil, err
		}
		if p.RiskLevel, err = parseRiskLevel(level); err != nil {
			return nil, err
		}
		likelihood, err := obj.number("likelihood")
		if err != nil {
			return nil, err
		}
		p.Likelihood = clampPercent(likelihood)
		if p.Timeframe, err = obj.str("timeframe"); err != nil {
			return nil, err
		}
		if p.Description, err = obj.str("description"); err != nil {
			return nil, err
		}
		if p.Recommendations, err = obj.strings("recommendations"); err != nil {
			return nil, err
		}
		if p.AffectedSystems, err = obj.strings("affectedSystems"); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

func parseRecommendations(root jsonObject) (models.Recommendations, error) {
	raw, err := root.field("recommendations")
	if err != nil {
		return models.Recommendations{}, err
	}
	obj, err := asObject(raw, "recommendations")
	if err != nil {
		return models.Recommendations{}, err
	}

	var recs models.Recommendations
	if recs.Immediate, err = obj.strings("immediate"); err != nil {
		return models.Recommendations{}, err
	}
	if recs.ShortTerm, err = obj.strings("shortTerm"); err != nil {
		return models.Recommendations{}, err
	}
	if recs.LongTerm, err = obj.strings("longTerm"); err != nil {
		return models.Recommendations{}, err
	}
	return recs, nil
}

func parseSystemHealth(root jsonObject) (models.SystemHealthSnapshot, error) {
	raw, err := root.field("systemHealth")
	if err != nil {
		return models.SystemHealthSnapshot{}, err
	}
	obj, err := asObject(raw, "systemHealth")
	if err != nil {
		return models.SystemHealthSnapshot{}, err
	}

	var health models.SystemHealthSnapshot
	score, err := obj.number("score")
	if err != nil {
		return models.SystemHealthSnapshot{}, err
	}
	health.Score = clampPercent(score)

	trend, err := obj.str("trend")
	if err != nil {
		return models.SystemHealthSnapshot{}, err
	}
	switch t := models.HealthTrend(strings.ToLower(strings.TrimSpace(trend))); t {
	case models.TrendImproving, models.TrendStable, models.TrendDeclining:
		health.Trend = t
	default:
		return models.SystemHealthSnapshot{}, malformed("systemHealth.trend: unknown value %q", trend)
	}

	if health.RiskFactors, err = obj.strings("riskFactors"); err != nil {
		return models.SystemHealthSnapshot{}, err
	}
	return health, nil
}

func parseRiskLevel(s string) (models.RiskLevel, error) {
	switch level := models.RiskLevel(strings.ToUpper(strings.TrimSpace(s))); level {
	case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
		return level, nil
	}
	return "", malformed("unknown risk level %q", s)
}

func clampPercent(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrMalformedResponse, fmt.Sprintf(format, args...))
}

func asObject(raw json.RawMessage, name string) (jsonObject, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, malformed("%s: expected object", name)
	}
	var obj jsonObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, malformed("%s: %v", name, err)
	}
	return obj, nil
}

func (o jsonObject) field(key string) (json.RawMessage, error) {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, malformed("missing field %q", key)
	}
	return raw, nil
}

func (o jsonObject) str(key string) (string, error) {
	raw, err := o.field(key)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", malformed("field %q: expected string", key)
	}
	return s, nil
}

func (o jsonObject) number(key string) (float64, error) {
	raw, err := o.field(key)
	if err != nil {
		return 0, err
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, malformed("field %q: expected number", key)
	}
	return n, nil
}

func (o jsonObject) array(key string) ([]json.RawMessage, error) {
	raw, err := o.field(key)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, malformed("field %q: expected array", key)
	}
	return items, nil
}

func (o jsonObject) strings(key string) ([]string, error) {
	items, err := o.array(key)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) || json.Unmarshal(item, &s) != nil {
			return nil, malformed("field %q[%d]: expected string", key, i)
		}
		values = append(values, s)
	}
	return values, nil
}
