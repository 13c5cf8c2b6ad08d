package render

import "github.com/joefrost01/batch-report/internal/contracts"

// badge is the presentation of a status value
type badge struct {
	Label string
	CSS   string // suffix of the status-* class
	Icon  string
}

// ⭐ SSOT: display names, css classes and icons live here and nowhere else

var groupBadges = map[contracts.CompletionStatus]badge{
	contracts.StatusComplete:   {Label: "Complete", CSS: "success", Icon: "✅"},
	contracts.StatusIncomplete: {Label: "Incomplete", CSS: "warning", Icon: "❌"},
	contracts.StatusExcess:     {Label: "Excess Data", CSS: "info", Icon: "⚠️"},
	contracts.StatusUnknown:    {Label: "Unknown", CSS: "neutral", Icon: "❓"},
}

var scenarioBadges = map[contracts.ScenarioStatus]badge{
	contracts.ScenarioLoaded:        {Label: "Loaded", CSS: "success", Icon: "✅"},
	contracts.ScenarioMissing:       {Label: "Missing", CSS: "danger", Icon: "❌"},
	contracts.ScenarioUnexpected:    {Label: "Unexpected", CSS: "warning", Icon: "⚠️"},
	contracts.ScenarioNotApplicable: {Label: "N/A", CSS: "neutral", Icon: "➖"},
}

type severityInfo struct {
	Label       string
	CSS         string
	Description string
}

var severities = map[contracts.LateSeverity]severityInfo{
	contracts.SeverityMinimal:     {Label: "Minimal", CSS: "info", Description: "1 day late"},
	contracts.SeverityModerate:    {Label: "Moderate", CSS: "warning", Description: "2-3 days late"},
	contracts.SeveritySignificant: {Label: "Significant", CSS: "warning", Description: "4-7 days late"},
	contracts.SeverityCritical:    {Label: "Critical", CSS: "danger", Description: "8+ days late"},
}

// GroupBadge returns the label, css suffix and icon of a group status
func GroupBadge(s contracts.CompletionStatus) (label, css, icon string) {
	b, ok := groupBadges[s]
	if !ok {
		b = groupBadges[contracts.StatusUnknown]
	}
	return b.Label, b.CSS, b.Icon
}

// ScenarioBadge returns the label, css suffix and icon of a scenario status
func ScenarioBadge(s contracts.ScenarioStatus) (label, css, icon string) {
	b, ok := scenarioBadges[s]
	if !ok {
		b = scenarioBadges[contracts.ScenarioNotApplicable]
	}
	return b.Label, b.CSS, b.Icon
}

// SeverityLabel returns the display name and description of a severity
func SeverityLabel(s contracts.LateSeverity) (label, description string) {
	info := severities[s]
	return info.Label, info.Description
}

// latenessCSS colours the days-late cell: over a week is danger, over three days a warning
func latenessCSS(daysLate int) string {
	switch {
	case daysLate > 7:
		return "danger"
	case daysLate > 3:
		return "warning"
	default:
		return "info"
	}
}
