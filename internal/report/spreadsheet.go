package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"deptbudget/internal/core"
)

const sheetName = "Expenses"

var spreadsheetHeader = []string{"Date", "Category", "Vendor", "Activity", "Amount", "Receipt URL"}

// SpreadsheetOptions carries the merged title band of the workbook.
type SpreadsheetOptions struct {
	Institute  string
	Department string
}

// BuildSpreadsheet renders the XLSX export: a merged two-row title band, a
// blank spacer row, a bold header row, then one row per expense in date
// ascending order. Amounts use the rupee glyph (spreadsheet text is not
// bound to an embedded font) and a missing receipt renders as "-".
func BuildSpreadsheet(records []core.Expense, opts SpreadsheetOptions) ([]byte, error) {
	rows := make([]core.Expense, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date.Time)
	})

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheetName)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("subtitle style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E5E7EB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "top", Color: "9CA3AF", Style: 1},
			{Type: "bottom", Color: "9CA3AF", Style: 1},
			{Type: "left", Color: "9CA3AF", Style: 1},
			{Type: "right", Color: "9CA3AF", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	if err := f.MergeCell(sheetName, "A2", "F2"); err != nil {
		return nil, fmt.Errorf("merge subtitle: %w", err)
	}
	f.SetCellValue(sheetName, "A1", opts.Institute)
	f.SetCellValue(sheetName, "A2", opts.Department)
	f.SetCellStyle(sheetName, "A1", "F1", titleStyle)
	f.SetCellStyle(sheetName, "A2", "F2", subtitleStyle)

	// Row 3 stays blank; headers on row 4, data from row 5.
	for i, h := range spreadsheetHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 4)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, "A4", "F4", headerStyle)

	for ri, r := range rows {
		receipt := r.ReceiptURL
		if receipt == "" {
			receipt = "-"
		}
		values := []any{
			r.Date.String(),
			r.Category,
			r.Vendor,
			r.Activity,
			FormatINR(r.Amount, true),
			receipt,
		}
		for ci, v := range values {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+5)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, v)
		}
	}

	widths := []float64{12, 20, 28, 28, 16, 40}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		f.SetColWidth(sheetName, col, col, w)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
