package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/emirozbir/clinic-insights/internal/models"
)

const (
	divider      = "═══════════════════════════════════════════════════════════════════════════════"
	sectionBreak = "───────────────────────────────────────────────────────────────────────────────"
)

var ansiPattern = regexp.MustCompile("\033\\[[0-9;]*m")

type Formatter struct {
	useColors bool
}

func NewFormatter(useColors bool) *Formatter {
	return &Formatter{
		useColors: useColors,
	}
}

// FormatHealthReport renders a report for terminal output.
func (f *Formatter) FormatHealthReport(report *models.HealthReport) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(Colorize(Cyan, divider))
	sb.WriteString("\n")
	sb.WriteString(Title("  🩺 CLINIC SYSTEM HEALTH REPORT"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Cyan, divider))
	sb.WriteString("\n\n")

	f.writeOverview(&sb, report)
	f.writeSystemHealth(&sb, report.Insights)

	if len(report.Patterns) > 0 {
		f.writePatterns(&sb, report.Patterns, report.Insights.PatternAssessments)
	}

	if len(report.Predictions) > 0 {
		f.writePredictions(&sb, "🔮 HEURISTIC PREDICTIONS", report.Predictions)
	}
	if len(report.Insights.Predictions) > 0 {
		f.writePredictions(&sb, "🤖 AI PREDICTIONS", report.Insights.Predictions)
	}

	f.writeRecommendations(&sb, report.Insights.Recommendations)

	sb.WriteString("\n")
	sb.WriteString(Colorize(Cyan, divider))
	sb.WriteString("\n")

	if !f.useColors {
		return ansiPattern.ReplaceAllString(sb.String(), "")
	}
	return sb.String()
}

func (f *Formatter) writeOverview(sb *strings.Builder, report *models.HealthReport) {
	sb.WriteString(SectionHeader("📋 OVERVIEW"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  Organization:  %s\n", BoldColorize(White, fmt.Sprintf("%d", report.OrganizationID))))
	sb.WriteString(fmt.Sprintf("  Timeframe:     %s\n", Info(string(report.Timeframe))))
	sb.WriteString(fmt.Sprintf("  Generated At:  %s\n", Muted(report.GeneratedAt.Format(time.RFC3339))))
	sb.WriteString(fmt.Sprintf("  Errors:        %s\n", Info(fmt.Sprintf("%d", report.ErrorCount))))
	sb.WriteString(fmt.Sprintf("  Samples:       %s\n", Info(fmt.Sprintf("%d", report.SampleCount))))
	if report.Fallback {
		sb.WriteString(fmt.Sprintf("  Source:        %s\n", Warning("baseline guidance (AI analysis unavailable)")))
	}
	sb.WriteString("\n")

	if report.Insights.Summary != "" {
		sb.WriteString(f.indentText(report.Insights.Summary, "  "))
		sb.WriteString("\n\n")
	}
}

func (f *Formatter) writeSystemHealth(sb *strings.Builder, insights models.AIInsightReport) {
	sb.WriteString(SectionHeader("❤️  SYSTEM HEALTH"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	health := insights.SystemHealth
	sb.WriteString(fmt.Sprintf("  Score:  %s\n", ScoreBadge(health.Score)))
	sb.WriteString(fmt.Sprintf("  Trend:  %s\n", TrendBadge(health.Trend)))

	if len(health.RiskFactors) > 0 {
		sb.WriteString(Colorize(Gray, "  Risk Factors:"))
		sb.WriteString("\n")
		for _, factor := range health.RiskFactors {
			sb.WriteString(fmt.Sprintf("    %s %s\n", Colorize(Yellow, "•"), factor))
		}
	}
	sb.WriteString("\n")
}

func (f *Formatter) writePatterns(sb *strings.Builder, patterns []models.ErrorPattern, assessments []models.PatternAssessment) {
	sb.WriteString(SectionHeader("🔎 ERROR PATTERNS"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	byType := make(map[string]models.PatternAssessment, len(assessments))
	for _, a := range assessments {
		byType[a.Type] = a
	}

	for i, p := range patterns {
		sb.WriteString(fmt.Sprintf("  %s. %s %s %s\n",
			Colorize(Yellow, fmt.Sprintf("%d", i+1)),
			SeverityBadge(p.Severity),
			BoldColorize(White, p.Type),
			Muted(fmt.Sprintf("(%d occurrences)", p.Frequency)),
		))
		sb.WriteString(fmt.Sprintf("     %s %s\n", Colorize(Gray, "└─"), Muted(p.TimePattern)))

		if len(p.AffectedComponents) > 0 {
			sb.WriteString(fmt.Sprintf("     %s %s\n", Muted("Components:"), strings.Join(p.AffectedComponents, ", ")))
		}
		for _, msg := range p.CommonMessages {
			sb.WriteString(fmt.Sprintf("       %s\n", Error(msg)))
		}
		if a, ok := byType[p.Type]; ok {
			sb.WriteString(fmt.Sprintf("     %s %s, %s: %s\n",
				Muted("Assessment:"),
				RiskBadge(models.RiskLevel(strings.ToUpper(a.RiskLevel))),
				a.Trend,
				a.Impact,
			))
		}
		sb.WriteString("\n")
	}
}

func (f *Formatter) writePredictions(sb *strings.Builder, title string, predictions []models.PredictiveInsight) {
	sb.WriteString(SectionHeader(title))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	for i, p := range predictions {
		sb.WriteString(fmt.Sprintf("  %s. %s %s %s\n",
			Colorize(Yellow, fmt.Sprintf("%d", i+1)),
			RiskBadge(p.RiskLevel),
			BoldColorize(White, fmt.Sprintf("%d%%", p.Likelihood)),
			Colorize(Magenta, p.Timeframe),
		))
		sb.WriteString(fmt.Sprintf("     %s\n", p.Description))
		if len(p.AffectedSystems) > 0 {
			sb.WriteString(fmt.Sprintf("     %s %s\n", Muted("Affects:"), strings.Join(p.AffectedSystems, ", ")))
		}
		for _, rec := range p.Recommendations {
			sb.WriteString(fmt.Sprintf("     %s %s\n", Colorize(Green, "→"), rec))
		}
		sb.WriteString("\n")
	}
}

func (f *Formatter) writeRecommendations(sb *strings.Builder, recs models.Recommendations) {
	sb.WriteString(SectionHeader("💡 RECOMMENDATIONS"))
	sb.WriteString("\n")
	sb.WriteString(Colorize(Gray, sectionBreak))
	sb.WriteString("\n")

	groups := []struct {
		badge string
		items []string
	}{
		{PriorityBadge("immediate"), recs.Immediate},
		{PriorityBadge("short-term"), recs.ShortTerm},
		{PriorityBadge("long-term"), recs.LongTerm},
	}
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s\n", g.badge))
		for i, item := range g.items {
			sb.WriteString(fmt.Sprintf("    %s. %s\n", Colorize(Yellow, fmt.Sprintf("%d", i+1)), item))
		}
		sb.WriteString("\n")
	}
}

func (f *Formatter) indentText(text string, indent string) string {
	lines := strings.Split(text, "\n")
	var result strings.Builder

	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.WriteString(indent)
			result.WriteString(line)
		}
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}
