package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"deptbudget/internal/core"
	applog "deptbudget/internal/log"
)

type budgetAmountsJSON struct {
	Total             float64 `json:"total"`
	Infrastructure    float64 `json:"infrastructure"`
	Hardware          float64 `json:"hardware"`
	Software          float64 `json:"software"`
	Workshops         float64 `json:"workshops"`
	ExpertTalks       float64 `json:"expertTalks"`
	Events            float64 `json:"events"`
	Stationary        float64 `json:"stationary"`
	StudentActivities float64 `json:"studentActivities"`
	Misc              float64 `json:"misc"`
}

type budgetJSON struct {
	ID           int64             `json:"id"`
	AcademicYear string            `json:"academicYear"`
	Proposed     budgetAmountsJSON `json:"proposed"`
	Allotted     budgetAmountsJSON `json:"allotted"`
}

type budgetPayload struct {
	AcademicYear      string  `json:"academicYear"`
	Total             float64 `json:"total"`
	Infrastructure    float64 `json:"infrastructure"`
	Hardware          float64 `json:"hardware"`
	Software          float64 `json:"software"`
	Workshops         float64 `json:"workshops"`
	ExpertTalks       float64 `json:"expertTalks"`
	Events            float64 `json:"events"`
	Stationary        float64 `json:"stationary"`
	StudentActivities float64 `json:"studentActivities"`
	Misc              float64 `json:"misc"`
}

func amountsToJSON(a core.BudgetAmounts) budgetAmountsJSON {
	return budgetAmountsJSON{
		Total:             a.Total,
		Infrastructure:    a.Infrastructure,
		Hardware:          a.Hardware,
		Software:          a.Software,
		Workshops:         a.Workshops,
		ExpertTalks:       a.ExpertTalks,
		Events:            a.Events,
		Stationary:        a.Stationary,
		StudentActivities: a.StudentActivities,
		Misc:              a.Misc,
	}
}

func budgetToJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:           b.ID,
		AcademicYear: b.AcademicYear,
		Proposed:     amountsToJSON(b.Proposed),
		Allotted:     amountsToJSON(b.Allotted),
	}
}

// toAmounts validates the payload figures into a domain value. Every figure
// maps to its named field; negative or non-finite figures are rejected.
func (p budgetPayload) toAmounts() (core.BudgetAmounts, string) {
	amounts := core.BudgetAmounts{
		Total:             p.Total,
		Infrastructure:    p.Infrastructure,
		Hardware:          p.Hardware,
		Software:          p.Software,
		Workshops:         p.Workshops,
		ExpertTalks:       p.ExpertTalks,
		Events:            p.Events,
		Stationary:        p.Stationary,
		StudentActivities: p.StudentActivities,
		Misc:              p.Misc,
	}
	for _, c := range core.Categories() {
		v := amounts.Amount(c)
		if v < 0 || v != core.CoerceAmount(v) {
			return core.BudgetAmounts{}, "invalid figure for " + string(c)
		}
	}
	if amounts.Total < 0 || amounts.Total != core.CoerceAmount(amounts.Total) {
		return core.BudgetAmounts{}, "invalid total"
	}
	return amounts, ""
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	year := strings.TrimSpace(r.PathValue("year"))
	if year == "" {
		respondError(w, http.StatusBadRequest, "missing academic year")
		return
	}

	budget, err := s.store.GetBudget(r.Context(), year)
	if err != nil {
		if errors.Is(err, core.ErrBudgetNotFound) {
			respondError(w, http.StatusNotFound, "no budget for academic year "+year)
			return
		}
		s.logger.ErrorContext(r.Context(), "Get budget failed",
			applog.FieldError, err.Error(), applog.FieldAcademicYear, year)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, budgetToJSON(budget))
}

func (s *Server) handleProposedBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	year := sanitizeInput(payload.AcademicYear)
	if year == "" {
		respondError(w, http.StatusBadRequest, "missing academic year")
		return
	}
	amounts, msg := payload.toAmounts()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	budget, err := s.store.UpsertProposedBudget(r.Context(), year, amounts)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Upsert proposed budget failed",
			applog.FieldError, err.Error(), applog.FieldAcademicYear, year)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, budgetToJSON(budget))
}

func (s *Server) handleAllottedBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	year := sanitizeInput(payload.AcademicYear)
	if year == "" {
		respondError(w, http.StatusBadRequest, "missing academic year")
		return
	}
	amounts, msg := payload.toAmounts()
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	budget, err := s.store.UpdateAllottedBudget(r.Context(), year, amounts)
	if err != nil {
		if errors.Is(err, core.ErrBudgetNotFound) {
			respondError(w, http.StatusNotFound, "no proposed budget for academic year "+year)
			return
		}
		s.logger.ErrorContext(r.Context(), "Update allotted budget failed",
			applog.FieldError, err.Error(), applog.FieldAcademicYear, year)
		respondInternalError(w)
		return
	}
	respondJSON(w, http.StatusOK, budgetToJSON(budget))
}
