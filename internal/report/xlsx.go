package report

import (
	"fmt"
	"io"

	"github.com/andresuchdata/reorder-forecast/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Forecast"

// WriteXLSX renders the rows as a single sheet workbook. Numeric columns are
// written as numbers so spreadsheets can sort them.
func WriteXLSX(w io.Writer, window domain.Window, rows []ForecastRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	headers := Headers(window)
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.CategoryName,
			row.ItemName,
			row.OrderNeeded,
			row.InStock,
			row.MonthSales[0],
			row.MonthSales[1],
			row.MonthSales[2],
			row.TotalSales,
			row.AvgDaily,
			row.Alert,
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %s: %w", row.VariationID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
