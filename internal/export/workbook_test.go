package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joefrost01/batch-report/internal/catalog"
	"github.com/joefrost01/batch-report/internal/contracts"
)

func date(s string) time.Time {
	t, err := contracts.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func report() *contracts.Report {
	return &contracts.Report{
		BatchDate: date("2024-01-15"),
		Summaries: []contracts.GroupSummary{
			{AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A", LoadedCount: 1, ExpectedCount: 2, Status: contracts.StatusIncomplete},
			{AssetClass: "Crypto", Product: "Spot", Entity: "Entity Z", LoadedCount: 1, Status: contracts.StatusUnknown},
		},
		Details: []contracts.ScenarioDetail{
			{AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A", Scenario: "Stress", IsExpected: true},
		},
		Backdated: []contracts.BackdatedScenario{
			{AssetClass: "Equity", Product: "US Large Cap", Entity: "Entity A", Scenario: "Base", BatchDate: date("2024-01-10"), LoadedDate: date("2024-01-14")},
		},
		DailyCounts: []contracts.DailyStatusCount{
			{Date: date("2024-01-14"), MissingCount: 1},
			{Date: date("2024-01-15"), LoadedCount: 1},
		},
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	cat := catalog.MustDefault()
	require.NoError(t, WriteWorkbook(&buf, report(), cat.All()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDetails, SheetBackdated, SheetTrend, SheetCatalog}, f.GetSheetList())

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Asset Class", rows[0][0])
	assert.Equal(t, []string{"Equity", "US Large Cap", "Entity A", "1", "2", "1", "50", "INCOMPLETE"}, rows[1])
	assert.Equal(t, "N/A", rows[2][6])

	rows, err = f.GetRows(SheetDetails)
	require.NoError(t, err)
	assert.Equal(t, "MISSING", rows[1][6])

	rows, err = f.GetRows(SheetBackdated)
	require.NoError(t, err)
	assert.Equal(t, []string{"Equity", "US Large Cap", "Entity A", "Base", "2024-01-10", "2024-01-14", "4", "SIGNIFICANT"}, rows[1])

	rows, err = f.GetRows(SheetTrend)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = f.GetRows(SheetCatalog)
	require.NoError(t, err)
	assert.Len(t, rows, cat.Len()+1)
}

func TestWriteWorkbookWithoutCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, &contracts.Report{BatchDate: date("2024-01-15")}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), SheetCatalog)
	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "batch-report-2024-01-15.xlsx", FileName("2024-01-15"))
}
