package analysis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/emirozbir/clinic-insights/internal/models"
)

func TestPredictSparseData(t *testing.T) {
	records := []models.ErrorRecord{
		record("A", models.SeverityCritical, "x", "db-pool", at(9, 0)),
		record("A", models.SeverityCritical, "x", "db-pool", at(9, 1)),
		record("A", models.SeverityCritical, "x", "db-pool", at(9, 2)),
	}

	predictions := Predict(records)
	if len(predictions) != 1 {
		t.Fatalf("expected exactly one prediction, got %d", len(predictions))
	}
	p := predictions[0]
	if p.RiskLevel != models.RiskLow || p.Likelihood != 20 || p.Timeframe != "next 7 days" {
		t.Fatalf("unexpected sparse prediction %+v", p)
	}
	if len(p.AffectedSystems) != 1 || p.AffectedSystems[0] != "monitoring" {
		t.Fatalf("unexpected affected systems %v", p.AffectedSystems)
	}
}

func TestPredictEmptyInput(t *testing.T) {
	predictions := Predict(nil)
	if len(predictions) != 1 || predictions[0].RiskLevel != models.RiskLow {
		t.Fatalf("expected informational prediction, got %+v", predictions)
	}
}

func TestPredictPeakHour(t *testing.T) {
	predictions := Predict(peakScenario())

	var peak *models.PredictiveInsight
	for i := range predictions {
		if predictions[i].RiskLevel == models.RiskMedium {
			peak = &predictions[i]
		}
	}
	if peak == nil {
		t.Fatalf("expected peak-hour prediction, got %+v", predictions)
	}
	if peak.Likelihood != 70 || peak.Timeframe != "next 24 hours" {
		t.Fatalf("unexpected peak prediction %+v", peak)
	}
	if !strings.Contains(peak.Description, "9:00") {
		t.Fatalf("expected description to name hour 9, got %q", peak.Description)
	}
	if predictions[0].RiskLevel != models.RiskMedium {
		t.Fatalf("expected peak-hour prediction first, got %+v", predictions)
	}
}

func TestPredictFailingComponent(t *testing.T) {
	tests := []struct {
		name        string
		dbPoolCount int
		wantFiring  bool
	}{
		{name: "above threshold", dbPoolCount: 7, wantFiring: true},
		{name: "at threshold", dbPoolCount: 5, wantFiring: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := spreadRecords(50, tt.dbPoolCount)
			predictions := Predict(records)

			var failing *models.PredictiveInsight
			for i := range predictions {
				if predictions[i].RiskLevel == models.RiskHigh {
					failing = &predictions[i]
				}
			}
			if tt.wantFiring != (failing != nil) {
				t.Fatalf("expected firing=%v, got predictions %+v", tt.wantFiring, predictions)
			}
			if failing == nil {
				return
			}
			if len(failing.AffectedSystems) != 1 || failing.AffectedSystems[0] != "db-pool" {
				t.Fatalf("unexpected affected systems %v", failing.AffectedSystems)
			}
			if failing.Likelihood != 60 || failing.Timeframe != "next 3 days" {
				t.Fatalf("unexpected failing prediction %+v", failing)
			}
		})
	}
}

func TestPredictEvenSpreadFiresNothing(t *testing.T) {
	records := spreadRecords(48, 0)
	if predictions := Predict(records); len(predictions) != 0 {
		t.Fatalf("expected no predictions, got %+v", predictions)
	}
}

func TestPredictIdempotent(t *testing.T) {
	records := spreadRecords(50, 7)
	first, _ := json.Marshal(Predict(records))
	second, _ := json.Marshal(Predict(records))
	if string(first) != string(second) {
		t.Fatalf("expected identical output across calls")
	}
}

// spreadRecords builds n records spread evenly over the 24 hours; the first
// dbPool records carry the "db-pool" component and the rest carry none.
func spreadRecords(n, dbPool int) []models.ErrorRecord {
	records := make([]models.ErrorRecord, 0, n)
	for i := 0; i < n; i++ {
		component := ""
		if i < dbPool {
			component = "db-pool"
		}
		records = append(records, record("QueryError", models.SeverityHigh, "query failed", component, at(i%24, i/24)))
	}
	return records
}
