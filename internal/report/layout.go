package report

// Page geometry, in points on an A4 portrait page. The bottom of every page
// keeps footerReserve clear above the margin; a row that would cross into
// that band starts a new page instead.
const (
	pageWidthPt   = 595.28
	pageHeightPt  = 841.89
	pageMargin    = 48.0
	rowHeight     = 18.0
	footerReserve = 120.0
)

// column describes one expense-table column. maxRunes caps cell text before
// ellipsizing; zero means no cap. Amounts right-align against the column's
// right edge.
type column struct {
	title      string
	width      float64
	maxRunes   int
	rightAlign bool
}

// Widths sum to the usable width between the margins.
var expenseColumns = []column{
	{title: "Date", width: 70},
	{title: "Category", width: 95, maxRunes: 18},
	{title: "Vendor", width: 130, maxRunes: 28},
	{title: "Activity", width: 134, maxRunes: 28},
	{title: "Amount", width: 70, rightAlign: true},
}

func tableWidth() float64 {
	var w float64
	for _, c := range expenseColumns {
		w += c.width
	}
	return w
}

// contentLimitY is the lowest y a table row may start at.
func contentLimitY() float64 {
	return pageHeightPt - pageMargin - footerReserve
}

// rowsFitting reports how many table rows fit between startY and the content
// limit.
func rowsFitting(startY float64) int {
	n := int((contentLimitY() - startY) / rowHeight)
	if n < 0 {
		return 0
	}
	return n
}

// tablePageCount reports how many pages a table of rowCount data rows spans
// when the header band sits at firstStartY on the first page. The header band
// is drawn once; continuation pages hold rows from the top margin down.
func tablePageCount(rowCount int, firstStartY float64) int {
	first := rowsFitting(firstStartY + rowHeight)
	if rowCount <= first {
		return 1
	}
	perPage := rowsFitting(pageMargin)
	remaining := rowCount - first
	return 1 + (remaining+perPage-1)/perPage
}

// ellipsize caps s at maxRunes, replacing the overflow with a single
// ellipsis rune. maxRunes <= 0 leaves s untouched.
func ellipsize(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-1]) + "…"
}
