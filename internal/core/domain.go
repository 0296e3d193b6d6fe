package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Infrastructure    Category = "infrastructure"
	Hardware          Category = "hardware"
	Software          Category = "software"
	Workshops         Category = "workshops"
	ExpertTalks       Category = "expert_talks"
	Events            Category = "events"
	Stationary        Category = "stationary"
	StudentActivities Category = "student_activities"
	Misc              Category = "misc"
)

type (
	// Category is one of the fixed departmental spending heads. Budgets carry
	// one proposed and one allotted figure per category.
	Category string

	Date struct {
		time.Time
	}

	// Expense is a single spend record logged against a category.
	Expense struct {
		ID         int64
		Category   string
		Amount     float64
		Date       Date
		Vendor     string
		Activity   string
		ReceiptURL string
	}

	// BudgetAmounts holds one figure per category plus the total.
	BudgetAmounts struct {
		Total             float64
		Infrastructure    float64
		Hardware          float64
		Software          float64
		Workshops         float64
		ExpertTalks       float64
		Events            float64
		Stationary        float64
		StudentActivities float64
		Misc              float64
	}

	// Budget is the proposed and allotted figures for one academic year.
	Budget struct {
		ID           int64
		AcademicYear string
		Proposed     BudgetAmounts
		Allotted     BudgetAmounts
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyVendor      = errors.New("empty vendor")
	ErrEmptyActivity    = errors.New("empty activity")
	ErrEmptyYear        = errors.New("empty academic year")
	ErrBudgetNotFound   = errors.New("budget not found")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrMissingExpenseID = errors.New("missing expense id")
)

// Categories returns the fixed category set in report display order.
func Categories() []Category {
	return []Category{
		Infrastructure,
		Hardware,
		Software,
		Workshops,
		ExpertTalks,
		Events,
		Stationary,
		StudentActivities,
		Misc,
	}
}

// ParseCategory validates a raw category string against the fixed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(strings.ToLower(s)))
	switch c {
	case Infrastructure, Hardware, Software, Workshops, ExpertTalks,
		Events, Stationary, StudentActivities, Misc:
		return c, nil
	}
	return "", ErrInvalidCategory
}

// Amount returns the figure stored for the given category. Each category maps
// to its own struct field; there is no name-driven lookup.
func (b BudgetAmounts) Amount(c Category) float64 {
	switch c {
	case Infrastructure:
		return b.Infrastructure
	case Hardware:
		return b.Hardware
	case Software:
		return b.Software
	case Workshops:
		return b.Workshops
	case ExpertTalks:
		return b.ExpertTalks
	case Events:
		return b.Events
	case Stationary:
		return b.Stationary
	case StudentActivities:
		return b.StudentActivities
	case Misc:
		return b.Misc
	}
	return 0
}

// SetAmount stores a figure for the given category.
func (b *BudgetAmounts) SetAmount(c Category, v float64) {
	switch c {
	case Infrastructure:
		b.Infrastructure = v
	case Hardware:
		b.Hardware = v
	case Software:
		b.Software = v
	case Workshops:
		b.Workshops = v
	case ExpertTalks:
		b.ExpertTalks = v
	case Events:
		b.Events = v
	case Stationary:
		b.Stationary = v
	case StudentActivities:
		b.StudentActivities = v
	case Misc:
		b.Misc = v
	}
}

// ParseDate parses the wire date format (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date in the wire format (YYYY-MM-DD).
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM grouping label, or "" for a zero date.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (e Expense) Validate() error {
	if _, err := ParseCategory(e.Category); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Vendor) == "" {
		return ErrEmptyVendor
	}
	if len(e.Vendor) > 200 {
		return errors.New("vendor too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Activity) == "" {
		return ErrEmptyActivity
	}
	if len(e.Activity) > 200 {
		return errors.New("activity too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.AcademicYear) == "" {
		return ErrEmptyYear
	}
	return nil
}
