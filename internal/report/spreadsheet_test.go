package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"deptbudget/internal/core"
)

var testSheetOptions = SpreadsheetOptions{
	Institute:  "JSPM's Rajarshi Shahu College of Engineering",
	Department: "Department of Computer Science and Business Systems",
}

func openSpreadsheet(t *testing.T, out []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheetName, ref)
	if err != nil {
		t.Fatalf("read %s: %v", ref, err)
	}
	return v
}

func TestBuildSpreadsheet(t *testing.T) {
	records := []core.Expense{
		{Category: "software", Amount: 300, Date: core.NewDate(2025, 2, 1), Vendor: "SoftCo", Activity: "License", ReceiptURL: "https://example.com/r/3"},
		{Category: "hardware", Amount: 1000, Date: core.NewDate(2025, 1, 10), Vendor: "Acme", Activity: "Lab upgrade"},
	}
	out, err := BuildSpreadsheet(records, testSheetOptions)
	if err != nil {
		t.Fatalf("build spreadsheet: %v", err)
	}

	f := openSpreadsheet(t, out)
	if got := cell(t, f, "A1"); got != testSheetOptions.Institute {
		t.Fatalf("A1 expected institute, got %q", got)
	}
	if got := cell(t, f, "A2"); got != testSheetOptions.Department {
		t.Fatalf("A2 expected department, got %q", got)
	}
	if got := cell(t, f, "A3"); got != "" {
		t.Fatalf("A3 expected blank spacer, got %q", got)
	}
	for i, h := range spreadsheetHeader {
		ref, _ := excelize.CoordinatesToCellName(i+1, 4)
		if got := cell(t, f, ref); got != h {
			t.Fatalf("%s expected %q, got %q", ref, h, got)
		}
	}

	// Rows come out date ascending regardless of input order.
	if got := cell(t, f, "A5"); got != "2025-01-10" {
		t.Fatalf("A5 expected 2025-01-10, got %q", got)
	}
	if got := cell(t, f, "A6"); got != "2025-02-01" {
		t.Fatalf("A6 expected 2025-02-01, got %q", got)
	}
	if got := cell(t, f, "E5"); got != "₹1,000.00" {
		t.Fatalf("E5 expected formatted amount, got %q", got)
	}
	if got := cell(t, f, "F5"); got != "-" {
		t.Fatalf("F5 expected - for missing receipt, got %q", got)
	}
	if got := cell(t, f, "F6"); got != "https://example.com/r/3" {
		t.Fatalf("F6 expected receipt url, got %q", got)
	}
}

func TestBuildSpreadsheetEmpty(t *testing.T) {
	out, err := BuildSpreadsheet(nil, testSheetOptions)
	if err != nil {
		t.Fatalf("build spreadsheet: %v", err)
	}
	f := openSpreadsheet(t, out)
	if got := cell(t, f, "A1"); got != testSheetOptions.Institute {
		t.Fatalf("A1 expected institute, got %q", got)
	}
	if got := cell(t, f, "A4"); got != "Date" {
		t.Fatalf("A4 expected header row, got %q", got)
	}
	if got := cell(t, f, "A5"); got != "" {
		t.Fatalf("A5 expected no data rows, got %q", got)
	}
}
