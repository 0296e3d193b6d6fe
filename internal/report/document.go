package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"deptbudget/internal/core"
)

// DocumentOptions carries the title-block fields and the asset directory the
// PDF exporter probes for fonts and the institute logo.
type DocumentOptions struct {
	Institute  string
	Department string
	PeriodFrom string
	PeriodTo   string
	AssetsDir  string
}

// documentFamily is the family name the Unicode TTF is registered under when
// one is found; otherwise the built-in Helvetica is used.
const documentFamily = "ReportSans"

type document struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	family string
	// rupee is true when the registered font can render the rupee glyph.
	// It holds for the whole document: either every amount carries the
	// glyph or every amount carries the "INR " prefix.
	rupee bool
}

// BuildDocument renders the expense report PDF: title block, total line,
// expense table, and the category-wise summary. Rows render in the order
// given (callers pass them date ascending).
func BuildDocument(records []core.Expense, opts DocumentOptions) ([]byte, error) {
	d := newDocument(opts.AssetsDir)
	summary := Aggregate(records)

	d.pdf.AddPage()
	d.writeTitle(opts, summary.TotalSpent)
	d.writeTable(records)
	d.writeSummary(summary)

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

func newDocument(assetsDir string) *document {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)

	d := &document{pdf: pdf, family: "Helvetica"}
	if path := findAsset(assetsDir, fontCandidates); path != "" {
		d.family = documentFamily
		pdf.AddUTF8Font(d.family, "", path)
		bold := findAsset(assetsDir, fontBoldCandidates)
		if bold == "" {
			bold = path
		}
		pdf.AddUTF8Font(d.family, "B", bold)
		d.rupee = true
		d.tr = func(s string) string { return s }
	} else {
		d.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	generated := time.Now().Format("2006-01-02 15:04")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-(pageMargin - 14))
		pdf.SetFont(d.family, "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(tableWidth()/2, 10, d.tr("Generated on "+generated), "", 0, "L", false, 0, "")
		pdf.CellFormat(tableWidth()/2, 10, d.tr(fmt.Sprintf("Page %d", pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	return d
}

func (d *document) writeTitle(opts DocumentOptions, total float64) {
	pdf := d.pdf

	if logo, w, h := findLogo(opts.AssetsDir); logo != "" {
		const logoHeight = 48.0
		logoWidth := logoHeight * float64(w) / float64(h)
		pdf.ImageOptions(logo, (pageWidthPt-logoWidth)/2, pdf.GetY(), logoWidth, logoHeight,
			false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		pdf.SetY(pdf.GetY() + logoHeight + 8)
	}

	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont(d.family, "B", 14)
	pdf.CellFormat(0, 20, d.tr(opts.Institute), "", 1, "C", false, 0, "")
	pdf.SetFont(d.family, "B", 11)
	pdf.CellFormat(0, 16, d.tr(opts.Department), "", 1, "C", false, 0, "")

	from, to := opts.PeriodFrom, opts.PeriodTo
	if from == "" {
		from = "Start"
	}
	if to == "" {
		to = "End"
	}
	pdf.SetFont(d.family, "", 10)
	pdf.SetTextColor(75, 85, 99)
	pdf.CellFormat(0, 14, d.tr(fmt.Sprintf("Report Period: %s to %s", from, to)), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont(d.family, "B", 11)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 16, d.tr("Total Spent (filtered): "+FormatINR(total, d.rupee)), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

// writeTable draws the column header band once, then the data rows. Rows that
// would cross into the footer reserve continue on a fresh page without a
// repeated header.
func (d *document) writeTable(rows []core.Expense) {
	pdf := d.pdf

	pdf.SetX(pageMargin)
	pdf.SetFillColor(229, 231, 235)
	pdf.SetDrawColor(156, 163, 175)
	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont(d.family, "B", 9)
	for _, c := range expenseColumns {
		align := "L"
		if c.rightAlign {
			align = "R"
		}
		pdf.CellFormat(c.width, rowHeight, d.tr(c.title), "1", 0, align, true, 0, "")
	}
	pdf.Ln(rowHeight)

	pdf.SetFont(d.family, "", 9)
	pdf.SetTextColor(31, 41, 55)
	pdf.SetDrawColor(209, 213, 219)
	for _, r := range rows {
		if pdf.GetY()+rowHeight > contentLimitY() {
			pdf.AddPage()
		}
		pdf.SetX(pageMargin)

		date := r.Date.String()
		if date == "" {
			date = "-"
		}
		raw := []string{date, r.Category, r.Vendor, r.Activity, FormatINR(r.Amount, d.rupee)}
		for i, c := range expenseColumns {
			align := "L"
			if c.rightAlign {
				align = "R"
			}
			pdf.CellFormat(c.width, rowHeight, d.tr(ellipsize(raw[i], c.maxRunes)), "B", 0, align, false, 0, "")
		}
		pdf.Ln(rowHeight)
	}
}

func (d *document) writeSummary(s Summary) {
	pdf := d.pdf

	// Keep the heading together with at least one line.
	if pdf.GetY()+10+16+rowHeight > contentLimitY() {
		pdf.AddPage()
	}
	pdf.Ln(10)
	pdf.SetFont(d.family, "B", 11)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 16, d.tr("Category-wise Summary"), "", 1, "L", false, 0, "")

	pdf.SetFont(d.family, "", 10)
	pdf.SetTextColor(31, 41, 55)
	for _, ct := range s.ByCategory {
		if pdf.GetY()+rowHeight > contentLimitY() {
			pdf.AddPage()
		}
		pdf.SetX(pageMargin)
		pdf.CellFormat(220, rowHeight, d.tr(ellipsize(ct.Category, 32)), "", 0, "L", false, 0, "")
		pdf.CellFormat(140, rowHeight, d.tr(FormatINR(ct.Total, d.rupee)), "", 1, "L", false, 0, "")
	}
}
