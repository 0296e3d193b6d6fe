package report

import (
	"sort"

	"deptbudget/internal/core"
)

// UncategorizedLabel buckets records whose category is blank.
const UncategorizedLabel = "Uncategorized"

type (
	CategoryTotal struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	MonthTotal struct {
		Month string  `json:"month"` // YYYY-MM
		Total float64 `json:"total"`
	}

	// Summary is the aggregate view of a filtered expense set, shared by the
	// dashboard endpoint and the report exporters.
	Summary struct {
		TotalSpent float64         `json:"totalSpent"`
		ByCategory []CategoryTotal `json:"byCategory"`
		ByMonth    []MonthTotal    `json:"byMonth"`
	}
)

// Aggregate folds a record set into per-category and per-month totals.
// Category totals come back sorted by descending total (category name breaks
// ties), month totals ascending by label. Records with a zero date are
// excluded from the month grouping but still count toward their category and
// the grand total.
func Aggregate(records []core.Expense) Summary {
	byCat := make(map[string]float64)
	byMonth := make(map[string]float64)

	var total float64
	for _, r := range records {
		amount := core.CoerceAmount(r.Amount)
		total += amount

		cat := r.Category
		if cat == "" {
			cat = UncategorizedLabel
		}
		byCat[cat] += amount

		if key := r.Date.MonthKey(); key != "" {
			byMonth[key] += amount
		}
	}

	s := Summary{
		TotalSpent: total,
		ByCategory: make([]CategoryTotal, 0, len(byCat)),
		ByMonth:    make([]MonthTotal, 0, len(byMonth)),
	}
	for cat, t := range byCat {
		s.ByCategory = append(s.ByCategory, CategoryTotal{Category: cat, Total: t})
	}
	for month, t := range byMonth {
		s.ByMonth = append(s.ByMonth, MonthTotal{Month: month, Total: t})
	}

	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Total != s.ByCategory[j].Total {
			return s.ByCategory[i].Total > s.ByCategory[j].Total
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})
	sort.Slice(s.ByMonth, func(i, j int) bool {
		return s.ByMonth[i].Month < s.ByMonth[j].Month
	})
	return s
}
