package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"deptbudget/internal/core"
	applog "deptbudget/internal/log"
	"deptbudget/internal/report"
	"deptbudget/internal/storage"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	expenses  map[int64]core.Expense
	budgets   map[string]core.Budget
	nextID    int64
	listCalls int
	failList  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		expenses: make(map[int64]core.Expense),
		budgets:  make(map[string]core.Budget),
		nextID:   1,
	}
}

func (f *fakeStore) ListExpenses(_ context.Context, filter storage.Filter, order storage.Order) ([]core.Expense, error) {
	f.listCalls++
	if f.failList {
		return nil, fmt.Errorf("store offline")
	}
	var out []core.Expense
	for _, e := range f.expenses {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Vendor != "" && !strings.Contains(strings.ToLower(e.Vendor), strings.ToLower(filter.Vendor)) {
			continue
		}
		if filter.Activity != "" && !strings.Contains(strings.ToLower(e.Activity), strings.ToLower(filter.Activity)) {
			continue
		}
		if !filter.From.IsZero() && e.Date.Before(filter.From.Time) {
			continue
		}
		if !filter.To.IsZero() && e.Date.After(filter.To.Time) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == storage.DateAsc {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[j].Date.Before(out[i].Date.Time)
	})
	return out, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	id := f.nextID
	f.nextID++
	e.ID = id
	f.expenses[id] = e
	return id, nil
}

func (f *fakeStore) UpdateExpense(_ context.Context, e core.Expense) error {
	if _, ok := f.expenses[e.ID]; !ok {
		return core.ErrExpenseNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeStore) DeleteExpense(_ context.Context, id int64) error {
	if _, ok := f.expenses[id]; !ok {
		return core.ErrExpenseNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeStore) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	return e, nil
}

func (f *fakeStore) GetBudget(_ context.Context, year string) (core.Budget, error) {
	b, ok := f.budgets[year]
	if !ok {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	return b, nil
}

func (f *fakeStore) UpsertProposedBudget(_ context.Context, year string, amounts core.BudgetAmounts) (core.Budget, error) {
	b := f.budgets[year]
	b.AcademicYear = year
	b.Proposed = amounts
	f.budgets[year] = b
	return b, nil
}

func (f *fakeStore) UpdateAllottedBudget(_ context.Context, year string, amounts core.BudgetAmounts) (core.Budget, error) {
	b, ok := f.budgets[year]
	if !ok {
		return core.Budget{}, core.ErrBudgetNotFound
	}
	b.Allotted = amounts
	f.budgets[year] = b
	return b, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func newTestServer(t *testing.T, store Store) *Server {
	t.Helper()
	s := NewServer(":0", store, applog.New(applog.DefaultConfig()), Options{
		Institute:  "Test Institute",
		Department: "Test Department",
	})
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func seedTestExpenses(t *testing.T, store *fakeStore) {
	t.Helper()
	records := []core.Expense{
		{Category: "hardware", Amount: 1000, Date: core.NewDate(2025, 1, 10), Vendor: "Acme", Activity: "Lab upgrade"},
		{Category: "hardware", Amount: 500.25, Date: core.NewDate(2025, 2, 3), Vendor: "Acme", Activity: "Cables"},
		{Category: "software", Amount: 300, Date: core.NewDate(2025, 1, 20), Vendor: "SoftCo", Activity: "License"},
	}
	for _, e := range records {
		if _, err := store.CreateExpense(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestCreateExpenseMissingFields(t *testing.T) {
	s := newTestServer(t, newFakeStore())

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"category": "hardware",
		"amount":   100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	for _, field := range []string{"date", "vendor", "activity"} {
		if !strings.Contains(resp.Error, field) {
			t.Fatalf("error %q should name missing field %s", resp.Error, field)
		}
	}
}

func TestCreateExpense(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"category": "hardware",
		"amount":   1200.5,
		"date":     "2025-03-01",
		"vendor":   "Acme",
		"activity": "Lab upgrade",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created expenseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == 0 || created.Amount != 1200.5 || created.Date != "2025-03-01" {
		t.Fatalf("unexpected response: %+v", created)
	}
	if len(store.expenses) != 1 {
		t.Fatalf("expected 1 stored expense, got %d", len(store.expenses))
	}
}

func TestCreateExpenseRejectsUnknownCategory(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	rec := doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"category": "travel",
		"amount":   10,
		"date":     "2025-03-01",
		"vendor":   "V",
		"activity": "A",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}
}

func TestListExpensesFiltered(t *testing.T) {
	store := newFakeStore()
	seedTestExpenses(t, store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/api/expenses?category=hardware", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []expenseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 hardware rows, got %d", len(out))
	}
	// Listing is newest first.
	if out[0].Date != "2025-02-03" {
		t.Fatalf("expected newest first, got %s", out[0].Date)
	}
}

func TestListExpensesBadDate(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	rec := doJSON(t, s, http.MethodGet, "/api/expenses?from=03-01-2025", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}
}

func TestUpdateExpense(t *testing.T) {
	store := newFakeStore()
	seedTestExpenses(t, store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodPut, "/api/expenses", map[string]any{
		"category": "misc",
		"amount":   50,
		"date":     "2025-01-11",
		"vendor":   "V",
		"activity": "A",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/expenses", map[string]any{
		"id":       1,
		"category": "misc",
		"amount":   50,
		"date":     "2025-01-11",
		"vendor":   "V",
		"activity": "A",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.expenses[1].Category != "misc" {
		t.Fatalf("update not applied: %+v", store.expenses[1])
	}

	rec = doJSON(t, s, http.MethodPut, "/api/expenses", map[string]any{
		"id":       999,
		"category": "misc",
		"amount":   50,
		"date":     "2025-01-11",
		"vendor":   "V",
		"activity": "A",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	store := newFakeStore()
	seedTestExpenses(t, store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodDelete, "/api/expenses", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/expenses?id=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := store.expenses[2]; ok {
		t.Fatalf("expense 2 not deleted")
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/expenses?id=2", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/api/budget/2025-26", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing year, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/budget/allotted", map[string]any{
		"academicYear": "2025-26",
		"total":        1000,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for allotment without proposal, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/budget/proposed", map[string]any{
		"academicYear": "2025-26",
		"total":        500000,
		"hardware":     200000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/budget/allotted", map[string]any{
		"academicYear": "2025-26",
		"total":        400000,
		"hardware":     150000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/budget/2025-26", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var b budgetJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if b.Proposed.Hardware != 200000 || b.Allotted.Hardware != 150000 {
		t.Fatalf("unexpected budget: %+v", b)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/budget/proposed", map[string]any{
		"academicYear": "2025-26",
		"hardware":     -5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative figure, got %d", rec.Code)
	}
}

func TestDashboardSummaryCaching(t *testing.T) {
	store := newFakeStore()
	seedTestExpenses(t, store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/summary?category=hardware", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary report.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalSpent != 1500.25 {
		t.Fatalf("expected total 1500.25, got %v", summary.TotalSpent)
	}
	calls := store.listCalls

	// Second identical request is served from cache.
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/summary?category=hardware", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.listCalls != calls {
		t.Fatalf("expected cache hit, store queried again")
	}

	// A write purges the cache.
	rec = doJSON(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"category": "hardware",
		"amount":   100,
		"date":     "2025-04-01",
		"vendor":   "Acme",
		"activity": "Spares",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/summary?category=hardware", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.listCalls == calls {
		t.Fatalf("expected cache purge after write")
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalSpent != 1600.25 {
		t.Fatalf("expected refreshed total 1600.25, got %v", summary.TotalSpent)
	}
}

func TestExportPDF(t *testing.T) {
	store := newFakeStore()
	seedTestExpenses(t, store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/api/export/pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != pdfContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, pdfFilename) {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a PDF")
	}
}

func TestExportPDFEmpty(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	rec := doJSON(t, s, http.MethodGet, "/api/export/pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for zero rows, got %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a PDF")
	}
}

func TestExportExcel(t *testing.T) {
	store := newFakeStore()
	seedTestExpenses(t, store)
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/api/export/excel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, xlsxFilename) {
		t.Fatalf("unexpected disposition %q", cd)
	}
	// XLSX is a zip container.
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("body is not an XLSX archive")
	}
}

func TestExportStoreFailureIsOpaque(t *testing.T) {
	store := newFakeStore()
	store.failList = true
	s := newTestServer(t, store)

	rec := doJSON(t, s, http.MethodGet, "/api/export/pdf", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if strings.Contains(resp.Error, "offline") {
		t.Fatalf("internal detail leaked to client: %q", resp.Error)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, newFakeStore())
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, rec.Code)
		}
	}
}
