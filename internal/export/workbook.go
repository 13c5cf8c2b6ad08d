// Package export writes reports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/joefrost01/batch-report/internal/contracts"
)

// Sheet names, in workbook order
const (
	SheetSummary   = "Summary"
	SheetDetails   = "Details"
	SheetBackdated = "Backdated"
	SheetTrend     = "Trend"
	SheetCatalog   = "Catalog"
)

// ContentType is the MIME type of the written workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName is the download name for a batch date
func FileName(batchDate string) string {
	return fmt.Sprintf("batch-report-%s.xlsx", batchDate)
}

type sheet struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

// WriteWorkbook writes one sheet per report section plus the catalog in force.
// catalog may be nil, in which case the Catalog sheet is omitted.
func WriteWorkbook(w io.Writer, report *contracts.Report, catalog []contracts.ExpectedScenario) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := []sheet{
		summarySheet(report),
		detailsSheet(report),
		backdatedSheet(report),
		trendSheet(report),
	}
	if catalog != nil {
		sheets = append(sheets, catalogSheet(catalog))
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"006A4E"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return fmt.Errorf("%s header: %w", s.name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", s.name, err)
	}

	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(s.name, "A", lastCol, 18); err != nil {
		return fmt.Errorf("%s column width: %w", s.name, err)
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", s.name, i+2, err)
		}
	}
	return nil
}

func summarySheet(r *contracts.Report) sheet {
	s := sheet{
		name:   SheetSummary,
		header: []interface{}{"Asset Class", "Product", "Entity", "Loaded", "Expected", "Missing", "Completion %", "Status"},
	}
	for _, g := range r.Summaries {
		var completion interface{} = "N/A"
		if pct, ok := g.CompletionPercent(); ok {
			completion = pct
		}
		s.rows = append(s.rows, []interface{}{
			g.AssetClass, g.Product, g.Entity, g.LoadedCount, g.ExpectedCount, g.MissingCount(), completion, string(g.Status),
		})
	}
	return s
}

func detailsSheet(r *contracts.Report) sheet {
	s := sheet{
		name:   SheetDetails,
		header: []interface{}{"Asset Class", "Product", "Entity", "Scenario", "Loaded", "Expected", "Status"},
	}
	for _, d := range r.Details {
		s.rows = append(s.rows, []interface{}{
			d.AssetClass, d.Product, d.Entity, d.Scenario, d.IsLoaded, d.IsExpected, string(d.Status()),
		})
	}
	return s
}

func backdatedSheet(r *contracts.Report) sheet {
	s := sheet{
		name:   SheetBackdated,
		header: []interface{}{"Asset Class", "Product", "Entity", "Scenario", "Batch Date", "Loaded Date", "Days Late", "Severity"},
	}
	for _, b := range r.Backdated {
		s.rows = append(s.rows, []interface{}{
			b.AssetClass, b.Product, b.Entity, b.Scenario,
			b.BatchDate.Format(contracts.DateLayout), b.LoadedDate.Format(contracts.DateLayout),
			b.DaysLate(), string(b.Severity()),
		})
	}
	return s
}

func trendSheet(r *contracts.Report) sheet {
	s := sheet{
		name:   SheetTrend,
		header: []interface{}{"Date", "Loaded", "Missing"},
	}
	for _, d := range r.DailyCounts {
		s.rows = append(s.rows, []interface{}{d.Date.Format(contracts.DateLayout), d.LoadedCount, d.MissingCount})
	}
	return s
}

func catalogSheet(catalog []contracts.ExpectedScenario) sheet {
	s := sheet{
		name:   SheetCatalog,
		header: []interface{}{"Asset Class", "Product", "Entity", "Scenario"},
	}
	for _, e := range catalog {
		s.rows = append(s.rows, []interface{}{e.AssetClass, e.Product, e.Entity, e.Scenario})
	}
	return s
}
