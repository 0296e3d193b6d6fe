package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"deptbudget/internal/core"
	applog "deptbudget/internal/log"
	"deptbudget/internal/storage"
)

type expenseJSON struct {
	ID         int64   `json:"id"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Vendor     string  `json:"vendor"`
	Activity   string  `json:"activity"`
	ReceiptURL string  `json:"receiptUrl,omitempty"`
}

type expensePayload struct {
	ID         int64    `json:"id"`
	Category   string   `json:"category"`
	Amount     *float64 `json:"amount"`
	Date       string   `json:"date"`
	Vendor     string   `json:"vendor"`
	Activity   string   `json:"activity"`
	ReceiptURL string   `json:"receiptUrl"`
}

func expenseToJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:         e.ID,
		Category:   e.Category,
		Amount:     e.Amount,
		Date:       e.Date.String(),
		Vendor:     e.Vendor,
		Activity:   e.Activity,
		ReceiptURL: e.ReceiptURL,
	}
}

// toExpense validates the payload into a domain expense. The returned message
// is safe to show to the client.
func (p expensePayload) toExpense() (core.Expense, string) {
	var missing []string
	if strings.TrimSpace(p.Category) == "" {
		missing = append(missing, "category")
	}
	if p.Amount == nil {
		missing = append(missing, "amount")
	}
	if strings.TrimSpace(p.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(p.Vendor) == "" {
		missing = append(missing, "vendor")
	}
	if strings.TrimSpace(p.Activity) == "" {
		missing = append(missing, "activity")
	}
	if len(missing) > 0 {
		return core.Expense{}, "missing required fields: " + strings.Join(missing, ", ")
	}

	category, err := core.ParseCategory(p.Category)
	if err != nil {
		return core.Expense{}, "unknown category: " + sanitizeInput(p.Category)
	}
	amount, err := core.ParseAmount(*p.Amount)
	if err != nil {
		return core.Expense{}, "amount must be a positive number"
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Expense{}, "invalid date: expected YYYY-MM-DD"
	}

	e := core.Expense{
		ID:         p.ID,
		Category:   string(category),
		Amount:     amount,
		Date:       date,
		Vendor:     sanitizeInput(p.Vendor),
		Activity:   sanitizeInput(p.Activity),
		ReceiptURL: strings.TrimSpace(p.ReceiptURL),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err.Error()
	}
	return e, ""
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), filter, storage.DateDesc)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List expenses failed",
			applog.FieldError, err.Error(), applog.FieldOperation, applog.OpList)
		respondInternalError(w)
		return
	}

	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseToJSON(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	expense, msg := payload.toExpense()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := s.store.CreateExpense(r.Context(), expense)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create expense failed",
			applog.FieldError, err.Error(), applog.FieldOperation, applog.OpCreate)
		respondInternalError(w)
		return
	}
	expense.ID = id
	s.summaryCache.Purge()

	respondJSON(w, http.StatusCreated, expenseToJSON(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.ID <= 0 {
		respondError(w, http.StatusBadRequest, "missing expense id")
		return
	}

	expense, msg := payload.toExpense()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Update expense failed",
			applog.FieldError, err.Error(), applog.FieldOperation, applog.OpUpdate,
			applog.FieldExpenseID, payload.ID)
		respondInternalError(w)
		return
	}
	s.summaryCache.Purge()

	respondJSON(w, http.StatusOK, expenseToJSON(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		respondError(w, http.StatusBadRequest, "missing expense id")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Delete expense failed",
			applog.FieldError, err.Error(), applog.FieldOperation, applog.OpDelete,
			applog.FieldExpenseID, id)
		respondInternalError(w)
		return
	}
	s.summaryCache.Purge()

	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
