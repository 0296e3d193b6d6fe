// Package storage is the SQLite record store for expenses and per-year
// budgets. The underlying *sql.DB is the process-wide connection pool:
// opened once through Acquire, shared by every request, released on
// shutdown.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"deptbudget/internal/core"

	_ "modernc.org/sqlite"
)

// Order fixes the date ordering of a listing. The list endpoint shows the
// newest spend first; the exporters read chronologically.
type Order int

const (
	DateDesc Order = iota
	DateAsc
)

// Filter narrows an expense listing. Zero fields are skipped; set fields
// combine with AND. Vendor and Activity match case-insensitive substrings,
// From and To are inclusive date bounds.
type Filter struct {
	Category string
	Vendor   string
	Activity string
	From     core.Date
	To       core.Date
}

type Repository struct {
	db *sql.DB
}

var (
	pool     *Repository
	poolErr  error
	poolOnce sync.Once
)

// Acquire returns the process-wide repository, opening it on first use.
// Every caller sees the same pool; Release closes it.
func Acquire(dbPath string) (*Repository, error) {
	poolOnce.Do(func() {
		pool, poolErr = Open(dbPath)
	})
	return pool, poolErr
}

// Release closes the process-wide repository opened by Acquire.
func Release() error {
	if pool == nil {
		return nil
	}
	return pool.Close()
}

// Open creates a repository on its own connection pool and migrates the
// schema. Tests use this directly with a temp-dir path.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the pool is still usable (readiness checks).
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const expenseColumns = "id, category, amount, date, vendor, activity, receipt_url"

// ListExpenses returns the expenses matching the filter in the given date
// order, id as a stable tiebreaker.
func (r *Repository) ListExpenses(ctx context.Context, f Filter, order Order) ([]core.Expense, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Vendor != "" {
		conds = append(conds, "LOWER(vendor) LIKE '%' || LOWER(?) || '%'")
		args = append(args, f.Vendor)
	}
	if f.Activity != "" {
		conds = append(conds, "LOWER(activity) LIKE '%' || LOWER(?) || '%'")
		args = append(args, f.Activity)
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}

	query := "SELECT " + expenseColumns + " FROM expenses"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if order == DateAsc {
		query += " ORDER BY date ASC, id ASC"
	} else {
		query += " ORDER BY date DESC, id DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (category, amount, date, vendor, activity, receipt_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Category, e.Amount, e.Date.String(), e.Vendor, e.Activity, e.ReceiptURL)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", id,
		"category", e.Category,
		"amount", e.Amount,
		"date", e.Date.String())
	return id, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET category = ?, amount = ?, date = ?, vendor = ?, activity = ?,
		     receipt_url = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		e.Category, e.Amount, e.Date.String(), e.Vendor, e.Activity, e.ReceiptURL, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows: %w", err)
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

// GetExpense retrieves a single expense by ID.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		rawDate string
	)
	if err := row.Scan(&e.ID, &e.Category, &e.Amount, &rawDate, &e.Vendor, &e.Activity, &e.ReceiptURL); err != nil {
		return core.Expense{}, err
	}
	if d, err := core.ParseDate(rawDate); err == nil {
		e.Date = d
	}
	return e, nil
}

var budgetCategoryColumns = []string{
	"infrastructure",
	"hardware",
	"software",
	"workshops",
	"expert_talks",
	"events",
	"stationary",
	"student_activities",
	"misc",
}

func budgetColumns() string {
	cols := []string{"id", "academic_year"}
	for _, side := range []string{"proposed", "allotted"} {
		cols = append(cols, side+"_total")
		for _, c := range budgetCategoryColumns {
			cols = append(cols, side+"_"+c)
		}
	}
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                    core.Budget
		createdAt, updatedAt string
	)
	dest := []any{&b.ID, &b.AcademicYear}
	for _, side := range []*core.BudgetAmounts{&b.Proposed, &b.Allotted} {
		dest = append(dest,
			&side.Total,
			&side.Infrastructure,
			&side.Hardware,
			&side.Software,
			&side.Workshops,
			&side.ExpertTalks,
			&side.Events,
			&side.Stationary,
			&side.StudentActivities,
			&side.Misc,
		)
	}
	dest = append(dest, &createdAt, &updatedAt)
	if err := row.Scan(dest...); err != nil {
		return core.Budget{}, err
	}
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		b.CreatedAt = t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", updatedAt); err == nil {
		b.UpdatedAt = t
	}
	return b, nil
}

// GetBudget returns the full budget row for an academic year.
func (r *Repository) GetBudget(ctx context.Context, academicYear string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns()+" FROM budgets WHERE academic_year = ?", academicYear)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// UpsertProposedBudget creates or replaces the proposed figures for an
// academic year, leaving any allotted figures untouched.
func (r *Repository) UpsertProposedBudget(ctx context.Context, academicYear string, amounts core.BudgetAmounts) (core.Budget, error) {
	cols := []string{"academic_year", "proposed_total"}
	for _, c := range budgetCategoryColumns {
		cols = append(cols, "proposed_"+c)
	}
	var sets []string
	for _, c := range cols[1:] {
		sets = append(sets, c+" = excluded."+c)
	}

	query := fmt.Sprintf(
		`INSERT INTO budgets (%s) VALUES (%s)
		 ON CONFLICT(academic_year) DO UPDATE SET %s, updated_at = datetime('now')`,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(sets, ", "))

	args := []any{academicYear, amounts.Total}
	for _, c := range core.Categories() {
		args = append(args, amounts.Amount(c))
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return core.Budget{}, fmt.Errorf("upsert proposed budget: %w", err)
	}

	slog.InfoContext(ctx, "Proposed budget saved",
		"academic_year", academicYear,
		"total", amounts.Total)
	return r.GetBudget(ctx, academicYear)
}

// UpdateAllottedBudget replaces the allotted figures for an academic year.
// A year without a proposed row cannot receive an allotment.
func (r *Repository) UpdateAllottedBudget(ctx context.Context, academicYear string, amounts core.BudgetAmounts) (core.Budget, error) {
	sets := []string{"allotted_total = ?"}
	args := []any{amounts.Total}
	for i, c := range budgetCategoryColumns {
		sets = append(sets, "allotted_"+c+" = ?")
		args = append(args, amounts.Amount(core.Categories()[i]))
	}
	args = append(args, academicYear)

	query := fmt.Sprintf(
		"UPDATE budgets SET %s, updated_at = datetime('now') WHERE academic_year = ?",
		strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update allotted budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Budget{}, fmt.Errorf("update allotted budget rows: %w", err)
	}
	if n == 0 {
		return core.Budget{}, core.ErrBudgetNotFound
	}

	slog.InfoContext(ctx, "Allotted budget saved",
		"academic_year", academicYear,
		"total", amounts.Total)
	return r.GetBudget(ctx, academicYear)
}
