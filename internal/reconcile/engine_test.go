package reconcile

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
)

var batchDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func loaded(asset, product, entity, scenario string) contracts.LoadedRecord {
	return contracts.LoadedRecord{
		AssetClass: asset, Product: product, Entity: entity, Scenario: scenario,
		BatchDate: batchDate,
	}
}

func twoScenarioCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]contracts.ExpectedScenario{
		{AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A", Scenario: "Base"},
		{AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A", Scenario: "Stress"},
	})
	require.NoError(t, err)
	return cat
}

func TestGroupSummaries_Statuses(t *testing.T) {
	tests := []struct {
		name        string
		records     []contracts.LoadedRecord
		wantLoaded  int
		wantStatus  contracts.CompletionStatus
		wantMissing int
	}{
		{
			name:        "nothing loaded",
			records:     nil,
			wantLoaded:  0,
			wantStatus:  contracts.StatusIncomplete,
			wantMissing: 2,
		},
		{
			name:        "one of two",
			records:     []contracts.LoadedRecord{loaded("Equity", "US Large Cap", "Entity A", "Base")},
			wantLoaded:  1,
			wantStatus:  contracts.StatusIncomplete,
			wantMissing: 1,
		},
		{
			name: "complete",
			records: []contracts.LoadedRecord{
				loaded("Equity", "US Large Cap", "Entity A", "Base"),
				loaded("Equity", "US Large Cap", "Entity A", "Stress"),
			},
			wantLoaded: 2,
			wantStatus: contracts.StatusComplete,
		},
		{
			name: "duplicate row counts as excess",
			records: []contracts.LoadedRecord{
				loaded("Equity", "US Large Cap", "Entity A", "Base"),
				loaded("Equity", "US Large Cap", "Entity A", "Base"),
				loaded("Equity", "US Large Cap", "Entity A", "Stress"),
			},
			wantLoaded: 3,
			wantStatus: contracts.StatusExcess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(twoScenarioCatalog(t))
			got := engine.GroupSummaries(tt.records)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantLoaded, got[0].LoadedCount)
			assert.Equal(t, 2, got[0].ExpectedCount)
			assert.Equal(t, tt.wantStatus, got[0].Status)
			assert.Equal(t, tt.wantMissing, got[0].MissingCount())
		})
	}
}

func TestScenarioDetails_ConcreteExample(t *testing.T) {
	engine := New(twoScenarioCatalog(t))
	records := []contracts.LoadedRecord{loaded("Equity", "US Large Cap", "Entity A", "Base")}

	summaries := engine.GroupSummaries(records)
	require.Len(t, summaries, 1)
	assert.Equal(t, contracts.GroupSummary{
		AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A",
		LoadedCount: 1, ExpectedCount: 2, Status: contracts.StatusIncomplete,
	}, summaries[0])

	details := engine.ScenarioDetails(records)
	require.Len(t, details, 2)
	assert.Equal(t, "Base", details[0].Scenario)
	assert.Equal(t, contracts.ScenarioLoaded, details[0].Status())
	assert.Equal(t, "Stress", details[1].Scenario)
	assert.Equal(t, contracts.ScenarioMissing, details[1].Status())
}

func TestUnexpectedGroup(t *testing.T) {
	engine := New(twoScenarioCatalog(t))
	records := []contracts.LoadedRecord{
		loaded("Crypto", "Spot", "Entity Z", "Base"),
		loaded("Crypto", "Spot", "Entity Z", "Base"),
	}

	summaries := engine.GroupSummaries(records)
	require.Len(t, summaries, 2)
	// "Crypto" sorts before "Equity"
	assert.Equal(t, contracts.GroupSummary{
		AssetClass: "Crypto", Product: "Spot", Entity: "Entity Z",
		LoadedCount: 2, ExpectedCount: 0, Status: contracts.StatusUnknown,
	}, summaries[0])
	assert.Equal(t, contracts.StatusIncomplete, summaries[1].Status)

	details := engine.ScenarioDetails(records)
	require.Len(t, details, 3, "duplicate unexpected rows collapse to one detail")
	assert.Equal(t, "Crypto", details[0].AssetClass)
	assert.Equal(t, contracts.ScenarioUnexpected, details[0].Status())
}

func TestUnexpectedScenarioInKnownGroup(t *testing.T) {
	engine := New(twoScenarioCatalog(t))
	records := []contracts.LoadedRecord{
		loaded("Equity", "US Large Cap", "Entity A", "Base"),
		loaded("Equity", "US Large Cap", "Entity A", "Stress"),
		loaded("Equity", "US Large Cap", "Entity A", "Adverse"),
	}

	summaries := engine.GroupSummaries(records)
	require.Len(t, summaries, 1)
	assert.Equal(t, contracts.StatusExcess, summaries[0].Status)

	details := engine.ScenarioDetails(records)
	require.Len(t, details, 3)
	assert.Equal(t, "Adverse", details[0].Scenario)
	assert.Equal(t, contracts.ScenarioUnexpected, details[0].Status())
}

func TestScenarioDetails_CompletenessOverDefaultCatalog(t *testing.T) {
	cat := catalog.MustDefault()
	engine := New(cat)

	records := []contracts.LoadedRecord{
		loaded("Equity", "US Large Cap", "Entity A", "Base"),
		loaded("Cash", "Money Market", "Entity C", "Base"),
		loaded("Equity", "US Large Cap", "Entity A", "Weekend"),
		loaded("Equity", "US Large Cap", "Entity A", "Weekend"),
	}

	details := engine.ScenarioDetails(records)

	expected := 0
	unexpected := 0
	seen := make(map[contracts.ScenarioKey]int)
	for _, d := range details {
		seen[d.FullKey()]++
		if d.IsExpected {
			expected++
		} else {
			unexpected++
		}
	}
	assert.Equal(t, cat.Len(), expected)
	assert.Equal(t, 1, unexpected)
	for _, s := range cat.All() {
		assert.Equal(t, 1, seen[s.FullKey()], "catalog entry %v must appear exactly once", s)
	}

	for i := 1; i < len(details); i++ {
		assert.False(t, details[i].FullKey().Less(details[i-1].FullKey()), "details must be sorted")
	}

	summaries := engine.GroupSummaries(records)
	assert.Len(t, summaries, len(cat.GroupKeys()))
	for i := 1; i < len(summaries); i++ {
		assert.True(t, summaries[i-1].GroupKey().Less(summaries[i].GroupKey()), "summaries must be sorted")
	}
}

func TestEmptyInput(t *testing.T) {
	cat := catalog.MustDefault()
	engine := New(cat)

	summaries := engine.GroupSummaries(nil)
	require.Len(t, summaries, len(cat.GroupKeys()))
	for _, s := range summaries {
		assert.Equal(t, 0, s.LoadedCount)
		assert.Equal(t, contracts.StatusIncomplete, s.Status)
	}

	details := engine.ScenarioDetails(nil)
	require.Len(t, details, cat.Len())
	for _, d := range details {
		assert.Equal(t, contracts.ScenarioMissing, d.Status())
	}
}

func TestEmptyCatalog(t *testing.T) {
	cat, err := catalog.New(nil)
	require.NoError(t, err)
	engine := New(cat)

	assert.Empty(t, engine.GroupSummaries(nil))
	assert.Empty(t, engine.ScenarioDetails(nil))

	records := []contracts.LoadedRecord{loaded("Equity", "X", "Y", "Z")}
	summaries := engine.GroupSummaries(records)
	require.Len(t, summaries, 1)
	assert.Equal(t, contracts.StatusUnknown, summaries[0].Status)
}

func TestIdempotence(t *testing.T) {
	engine := New(catalog.MustDefault())
	records := []contracts.LoadedRecord{
		loaded("Derivatives", "Credit", "Entity A", "Base"),
		loaded("Alternative", "Commodities", "Entity C", "Adverse"),
		loaded("Unlisted", "OTC", "Entity Q", "Base"),
		loaded("Equity", "International", "Entity C", "Stress"),
	}

	s1, s2 := engine.GroupSummaries(records), engine.GroupSummaries(records)
	if diff := cmp.Diff(s1, s2); diff != "" {
		t.Errorf("GroupSummaries not idempotent (-first +second):\n%s", diff)
	}

	d1, d2 := engine.ScenarioDetails(records), engine.ScenarioDetails(records)
	if diff := cmp.Diff(d1, d2); diff != "" {
		t.Errorf("ScenarioDetails not idempotent (-first +second):\n%s", diff)
	}

	// input order must not matter either
	reversed := make([]contracts.LoadedRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	if diff := cmp.Diff(d1, engine.ScenarioDetails(reversed)); diff != "" {
		t.Errorf("ScenarioDetails depends on input order:\n%s", diff)
	}
}

func TestOverview(t *testing.T) {
	engine := New(twoScenarioCatalog(t))
	records := []contracts.LoadedRecord{
		loaded("Equity", "US Large Cap", "Entity A", "Base"),
		loaded("Crypto", "Spot", "Entity Z", "Base"),
	}

	o := Overview(engine.GroupSummaries(records), engine.ScenarioDetails(records))
	assert.Equal(t, 2, o.TotalLoaded)
	assert.Equal(t, 2, o.TotalExpected)
	assert.InDelta(t, 100.0, o.CompletionRate, 1e-9)
	assert.Equal(t, 0, o.CompleteGroups)
	assert.Equal(t, 2, o.LoadedScenarios)
	assert.Equal(t, 1, o.MissingScenarios)
	assert.Equal(t, 1, o.UnexpectedScenarios)
	assert.Equal(t, 2, o.AssetClasses)
	assert.Equal(t, 2, o.Products)
	assert.Equal(t, 2, o.Entities)

	empty := Overview(nil, nil)
	assert.Zero(t, empty.CompletionRate)
}
