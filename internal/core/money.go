// Package core provides the departmental budget domain types and money
// handling utilities shared by storage, the HTTP layer, and the report
// exporters.
package core

import "math"

// CoerceAmount normalizes a raw monetary value for display and aggregation.
// NaN and infinities become 0 so a single bad record cannot poison a report
// total or crash a formatter.
func CoerceAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseAmount converts an arbitrary JSON number into a validated expense
// amount. Unlike CoerceAmount it rejects rather than zeroes: user input
// should fail loudly, stored data should degrade quietly.
func ParseAmount(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
