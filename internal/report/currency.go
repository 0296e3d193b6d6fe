// Package report builds the downloadable budget reports: INR currency
// formatting, expense aggregation, and the PDF and XLSX exporters.
package report

import (
	"strconv"
	"strings"

	"deptbudget/internal/core"
)

// FormatINR renders a monetary amount with exactly two decimals and Indian
// digit grouping (12,34,567.00). With rupeeGlyph the value is prefixed with
// the rupee sign; otherwise with the ASCII "INR " marker used when the
// document font cannot render the glyph. Non-finite input renders as zero.
func FormatINR(amount float64, rupeeGlyph bool) string {
	s := strconv.FormatFloat(core.CoerceAmount(amount), 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	grouped := groupIndian(s[:dot]) + s[dot:]

	if rupeeGlyph {
		return "₹" + sign + grouped
	}
	return "INR " + sign + grouped
}

// groupIndian inserts the Indian grouping separators: the last three digits
// form one group, every group before that has two digits.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var b strings.Builder
	// Leading group of one or two digits, then pairs.
	lead := len(head) % 2
	if lead == 0 {
		lead = 2
	}
	b.WriteString(head[:lead])
	for i := lead; i < len(head); i += 2 {
		b.WriteByte(',')
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
