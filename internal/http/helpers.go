package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"deptbudget/internal/core"
	"deptbudget/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondInternalError hides failure detail from clients; the caller logs it.
func respondInternalError(w http.ResponseWriter) {
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// parseFilter reads the optional listing filters from query parameters.
// Malformed dates are a client error.
func parseFilter(r *http.Request) (storage.Filter, error) {
	q := r.URL.Query()
	f := storage.Filter{
		Category: sanitizeInput(q.Get("category")),
		Vendor:   sanitizeInput(q.Get("vendor")),
		Activity: sanitizeInput(q.Get("activity")),
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return storage.Filter{}, fmt.Errorf("invalid 'from' date %q: expected YYYY-MM-DD", v)
		}
		f.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return storage.Filter{}, fmt.Errorf("invalid 'to' date %q: expected YYYY-MM-DD", v)
		}
		f.To = d
	}
	return f, nil
}

// filterCacheKey is the dashboard cache key for a filter. Fields join with a
// separator that cannot appear in a date and is stripped from text inputs.
func filterCacheKey(f storage.Filter) string {
	return strings.Join([]string{f.Category, f.Vendor, f.Activity, f.From.String(), f.To.String()}, "\x1f")
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
