package contracts

import "time"

// CompletionStatus classifies a group's loaded count against its expectation
type CompletionStatus string

const (
	StatusComplete   CompletionStatus = "COMPLETE"
	StatusIncomplete CompletionStatus = "INCOMPLETE"
	StatusExcess     CompletionStatus = "EXCESS"
	StatusUnknown    CompletionStatus = "UNKNOWN"
)

// CompletionStatusFromCounts derives the status of a group
// ⭐ SSOT: the only place completion status is decided
func CompletionStatusFromCounts(loaded, expected int) CompletionStatus {
	switch {
	case expected == 0:
		return StatusUnknown
	case loaded == expected:
		return StatusComplete
	case loaded > expected:
		return StatusExcess
	default:
		return StatusIncomplete
	}
}

// GroupSummary is the per-group reconciliation result
type GroupSummary struct {
	AssetClass    string           `json:"asset_class"`
	Product       string           `json:"product"`
	Entity        string           `json:"entity"`
	LoadedCount   int              `json:"loaded_count"`
	ExpectedCount int              `json:"expected_count"`
	Status        CompletionStatus `json:"status"`
}

// GroupKey returns the summary's group
func (s GroupSummary) GroupKey() GroupKey {
	return GroupKey{AssetClass: s.AssetClass, Product: s.Product, Entity: s.Entity}
}

// IsComplete reports whether every expected scenario arrived exactly once
func (s GroupSummary) IsComplete() bool {
	return s.Status == StatusComplete
}

// MissingCount is the shortfall against the expectation, never negative
func (s GroupSummary) MissingCount() int {
	if s.ExpectedCount > s.LoadedCount {
		return s.ExpectedCount - s.LoadedCount
	}
	return 0
}

// CompletionPercent returns loaded/expected*100. ok is false when nothing is expected.
func (s GroupSummary) CompletionPercent() (pct float64, ok bool) {
	if s.ExpectedCount == 0 {
		return 0, false
	}
	return float64(s.LoadedCount) / float64(s.ExpectedCount) * 100, true
}

// ScenarioStatus classifies one scenario of the batch
type ScenarioStatus string

const (
	ScenarioLoaded        ScenarioStatus = "LOADED"
	ScenarioMissing       ScenarioStatus = "MISSING"
	ScenarioUnexpected    ScenarioStatus = "UNEXPECTED"
	ScenarioNotApplicable ScenarioStatus = "NOT_APPLICABLE"
)

// ScenarioDetail is the per-scenario reconciliation result
type ScenarioDetail struct {
	AssetClass string `json:"asset_class"`
	Product    string `json:"product"`
	Entity     string `json:"entity"`
	Scenario   string `json:"scenario"`
	IsLoaded   bool   `json:"is_loaded"`
	IsExpected bool   `json:"is_expected"`
}

// FullKey returns the detail's full key
func (d ScenarioDetail) FullKey() ScenarioKey {
	return ScenarioKey{
		GroupKey: GroupKey{AssetClass: d.AssetClass, Product: d.Product, Entity: d.Entity},
		Scenario: d.Scenario,
	}
}

// Status derives the scenario status from the two flags
func (d ScenarioDetail) Status() ScenarioStatus {
	switch {
	case d.IsLoaded && !d.IsExpected:
		return ScenarioUnexpected
	case d.IsLoaded && d.IsExpected:
		return ScenarioLoaded
	case d.IsExpected:
		return ScenarioMissing
	default:
		return ScenarioNotApplicable
	}
}

// LateSeverity buckets how late a backdated scenario arrived
type LateSeverity string

const (
	SeverityMinimal     LateSeverity = "MINIMAL"
	SeverityModerate    LateSeverity = "MODERATE"
	SeveritySignificant LateSeverity = "SIGNIFICANT"
	SeverityCritical    LateSeverity = "CRITICAL"
)

// LateSeverityFromDays maps days late to a severity bucket
func LateSeverityFromDays(days int) LateSeverity {
	switch {
	case days <= 1:
		return SeverityMinimal
	case days <= 3:
		return SeverityModerate
	case days <= 7:
		return SeveritySignificant
	default:
		return SeverityCritical
	}
}

// BackdatedScenario is a record that arrived after its batch date had passed
type BackdatedScenario struct {
	AssetClass string    `json:"asset_class"`
	Product    string    `json:"product"`
	Entity     string    `json:"entity"`
	Scenario   string    `json:"scenario"`
	BatchDate  time.Time `json:"batch_date"`
	LoadedDate time.Time `json:"loaded_date"`
}

// DaysLate is the calendar day distance between batch and load dates
func (b BackdatedScenario) DaysLate() int {
	return DaysBetween(b.BatchDate, b.LoadedDate)
}

// Severity buckets DaysLate
func (b BackdatedScenario) Severity() LateSeverity {
	return LateSeverityFromDays(b.DaysLate())
}

// DailyStatusCount is one day of the trend series.
// MissingCount is a presence flag: 1 when nothing loaded that day, else 0.
type DailyStatusCount struct {
	Date         time.Time `json:"date"`
	LoadedCount  int       `json:"loaded_count"`
	MissingCount int       `json:"missing_count"`
}

// Overview carries the headline numbers shown at the top of a report
type Overview struct {
	TotalLoaded         int     `json:"total_loaded"`
	TotalExpected       int     `json:"total_expected"`
	CompletionRate      float64 `json:"completion_rate"`
	CompleteGroups      int     `json:"complete_groups"`
	LoadedScenarios     int     `json:"loaded_scenarios"`
	MissingScenarios    int     `json:"missing_scenarios"`
	UnexpectedScenarios int     `json:"unexpected_scenarios"`
	AssetClasses        int     `json:"asset_classes"`
	Products            int     `json:"products"`
	Entities            int     `json:"entities"`
}

// Report is the complete result of one reconciliation run
// ⭐ SSOT: renderers, exporters and the API all consume this value
type Report struct {
	RunID       string              `json:"run_id"`
	BatchDate   time.Time           `json:"batch_date"`
	GeneratedAt time.Time           `json:"generated_at"`
	CatalogHash string              `json:"catalog_hash"`
	Overview    Overview            `json:"overview"`
	Summaries   []GroupSummary      `json:"summaries"`
	Details     []ScenarioDetail    `json:"details"`
	DailyCounts []DailyStatusCount  `json:"daily_counts"`
	Backdated   []BackdatedScenario `json:"backdated"`
}

// Subject is the email subject line for the report
func (r *Report) Subject() string {
	return "Batch Load Report - " + r.BatchDate.Format(DateLayout)
}
