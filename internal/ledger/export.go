// =============================================================================
// WeChat Order Ledger - XLSX Export
// =============================================================================
//
// Converts a month ledger CSV into an XLSX workbook. Operators share the
// monthly files with people who open them in Excel, where the raw CSV
// mangles the Chinese headers and the brace gift column.
//
// =============================================================================

package ledger

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"orderledger/internal/rowcsv"
)

const exportSheet = "Sheet1"

// ExportXLSX renders ledger CSV content into an XLSX file at outPath. The
// CSV is read with the same tolerant dialect the rest of the pipeline uses,
// so legacy short rows export fine.
func ExportXLSX(csvContent, outPath string) error {
	rows, err := rowcsv.NewReader(strings.NewReader(csvContent)).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse ledger CSV: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("ledger content is empty")
	}

	f := excelize.NewFile()
	defer f.Close()

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("failed to map cell (%d,%d): %w", rowIdx, colIdx, err)
			}
			if err := f.SetCellValue(exportSheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	// The address and gift columns carry the longest values.
	if err := f.SetColWidth(exportSheet, "C", "C", 40); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "I", "I", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}
