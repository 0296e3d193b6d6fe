package http

import (
	"net/http"

	applog "deptbudget/internal/log"
	"deptbudget/internal/report"
	"deptbudget/internal/storage"
)

// handleDashboardSummary serves the filtered aggregate view. Results are
// cached per filter; every expense write purges the cache.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := filterCacheKey(filter)
	if summary, ok := s.summaryCache.Get(key); ok {
		s.logger.DebugContext(r.Context(), "Summary cache hit")
		respondJSON(w, http.StatusOK, summary)
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), filter, storage.DateAsc)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard summary failed",
			applog.FieldError, err.Error(), applog.FieldOperation, applog.OpList)
		respondInternalError(w)
		return
	}

	summary := report.Aggregate(expenses)
	s.summaryCache.Set(key, summary)
	respondJSON(w, http.StatusOK, summary)
}
