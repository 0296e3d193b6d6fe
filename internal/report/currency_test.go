package report

import (
	"math"
	"testing"
)

func TestFormatINRGlyph(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "₹0.00"},
		{7, "₹7.00"},
		{999.5, "₹999.50"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{1234567.891, "₹12,34,567.89"},
		{98765432.1, "₹9,87,65,432.10"},
		{-1234.5, "₹-1,234.50"},
	}
	for _, tc := range cases {
		if got := FormatINR(tc.in, true); got != tc.out {
			t.Fatalf("%v expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestFormatINRASCIIPrefix(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "INR 0.00"},
		{1234567.891, "INR 12,34,567.89"},
		{100000, "INR 1,00,000.00"},
	}
	for _, tc := range cases {
		if got := FormatINR(tc.in, false); got != tc.out {
			t.Fatalf("%v expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestFormatINRNonFinite(t *testing.T) {
	for _, in := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := FormatINR(in, true); got != "₹0.00" {
			t.Fatalf("%v expected ₹0.00, got %q", in, got)
		}
		if got := FormatINR(in, false); got != "INR 0.00" {
			t.Fatalf("%v expected INR 0.00, got %q", in, got)
		}
	}
}
