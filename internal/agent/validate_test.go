package agent

import (
	"errors"
	"testing"

	"github.com/emirozbir/clinic-insights/internal/models"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "bare object", text: `{"a": 1}`},
		{name: "code fence", text: "```json\n{\"a\": {\"b\": 2}}\n```"},
		{name: "prose around", text: `Sure! {"a": 1} Hope this helps.`},
		{name: "no braces", text: "not json", wantErr: true},
		{name: "reversed braces", text: "} oops {", wantErr: true},
		{name: "two objects", text: `{"a": 1} and {"b": 2}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractJSONObject(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractJSONObject(%q) error = %v, wantErr %v", tt.text, err, tt.wantErr)
			}
		})
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    models.RiskLevel
		wantErr bool
	}{
		{in: "LOW", want: models.RiskLow},
		{in: "medium", want: models.RiskMedium},
		{in: " High ", want: models.RiskHigh},
		{in: "Critical", want: models.RiskCritical},
		{in: "severe", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseRiskLevel(tt.in)
		if tt.wantErr {
			if !errors.Is(err, models.ErrMalformedResponse) {
				t.Errorf("parseRiskLevel(%q) expected malformed error, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseRiskLevel(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestClampPercent(t *testing.T) {
	tests := map[float64]int{-10: 0, 0: 0, 49.5: 50, 72.2: 72, 100: 100, 250: 100}
	for in, want := range tests {
		if got := clampPercent(in); got != want {
			t.Errorf("clampPercent(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestParseInsightResponseEmptyCollections(t *testing.T) {
	text := `{"summary": "Quiet week.", "patterns": [], "predictions": [],
		"recommendations": {"immediate": [], "shortTerm": [], "longTerm": []},
		"systemHealth": {"score": 95, "trend": "improving", "riskFactors": []}}`

	report, err := parseInsightResponse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if report.Predictions == nil || report.PatternAssessments == nil || report.Patterns == nil {
		t.Fatalf("expected empty, non-nil collections")
	}
	if report.SystemHealth.Trend != models.TrendImproving || report.SystemHealth.Score != 95 {
		t.Fatalf("unexpected health %+v", report.SystemHealth)
	}
}

func TestParseInsightResponseRejectsWrongShapes(t *testing.T) {
	tests := map[string]string{
		"array root":          `[{"summary": "x"}]`,
		"prediction a string": `{"summary": "x", "patterns": [], "predictions": ["boom"], "recommendations": {"immediate": [], "shortTerm": [], "longTerm": []}, "systemHealth": {"score": 1, "trend": "stable", "riskFactors": []}}`,
		"health an array":     `{"summary": "x", "patterns": [], "predictions": [], "recommendations": {"immediate": [], "shortTerm": [], "longTerm": []}, "systemHealth": []}`,
		"likelihood bool":     `{"summary": "x", "patterns": [], "predictions": [{"riskLevel": "LOW", "likelihood": true, "timeframe": "t", "description": "d", "recommendations": [], "affectedSystems": []}], "recommendations": {"immediate": [], "shortTerm": [], "longTerm": []}, "systemHealth": {"score": 1, "trend": "stable", "riskFactors": []}}`,
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseInsightResponse(text); !errors.Is(err, models.ErrMalformedResponse) {
				t.Fatalf("expected malformed response error, got %v", err)
			}
		})
	}
}
