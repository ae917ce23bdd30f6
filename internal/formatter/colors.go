package formatter

import (
	"fmt"

	"github.com/emirozbir/clinic-insights/internal/models"
)

// ANSI color codes for terminal output
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	// Foreground colors
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	// Background colors
	BgRed    = "\033[41m"
	BgGreen  = "\033[42m"
	BgYellow = "\033[43m"
	BgBlue   = "\033[44m"
)

// Color helpers
func Colorize(color, text string) string {
	return fmt.Sprintf("%s%s%s", color, text, Reset)
}

func BoldColorize(color, text string) string {
	return fmt.Sprintf("%s%s%s%s", Bold, color, text, Reset)
}

func Title(text string) string {
	return BoldColorize(Cyan, text)
}

func SectionHeader(text string) string {
	return BoldColorize(Blue, text)
}

func Success(text string) string {
	return Colorize(Green, text)
}

func Warning(text string) string {
	return Colorize(Yellow, text)
}

func Error(text string) string {
	return Colorize(Red, text)
}

func Info(text string) string {
	return Colorize(Cyan, text)
}

func Muted(text string) string {
	return Colorize(Gray, text)
}

// ScoreBadge colors a 0-100 health score.
func ScoreBadge(score int) string {
	text := fmt.Sprintf("● %d/100", score)
	switch {
	case score >= 80:
		return BoldColorize(Green, text)
	case score >= 50:
		return BoldColorize(Yellow, text)
	default:
		return BoldColorize(Red, text)
	}
}

func TrendBadge(trend models.HealthTrend) string {
	switch trend {
	case models.TrendImproving:
		return BoldColorize(Green, "▲ improving")
	case models.TrendStable:
		return BoldColorize(Cyan, "■ stable")
	case models.TrendDeclining:
		return BoldColorize(Red, "▼ declining")
	default:
		return BoldColorize(Gray, "• unknown")
	}
}

func RiskBadge(level models.RiskLevel) string {
	switch level {
	case models.RiskCritical:
		return fmt.Sprintf("%s%s %s %s", Bold, BgRed, level, Reset)
	case models.RiskHigh:
		return BoldColorize(Red, "⚠ HIGH")
	case models.RiskMedium:
		return BoldColorize(Yellow, "◉ MEDIUM")
	case models.RiskLow:
		return BoldColorize(Green, "○ LOW")
	default:
		return BoldColorize(Gray, "• UNKNOWN")
	}
}

func PriorityBadge(horizon string) string {
	switch horizon {
	case "immediate":
		return BoldColorize(Red, "⚠ IMMEDIATE")
	case "short-term":
		return BoldColorize(Yellow, "◉ SHORT TERM")
	case "long-term":
		return BoldColorize(Green, "○ LONG TERM")
	default:
		return BoldColorize(Gray, "• NORMAL")
	}
}

func SeverityBadge(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return fmt.Sprintf("%s%s %s %s", Bold, BgRed, severity, Reset)
	case models.SeverityHigh:
		return fmt.Sprintf("%s%s %s %s", Bold, BgYellow, severity, Reset)
	case models.SeverityMedium:
		return fmt.Sprintf("%s%s %s %s", Bold, BgBlue, severity, Reset)
	default:
		return Muted(string(severity))
	}
}
