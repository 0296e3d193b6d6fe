// Package http serves the budget-tracker JSON API: expense CRUD, per-year
// budgets, dashboard summaries, and the PDF/XLSX report exports.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"deptbudget/internal/cache"
	"deptbudget/internal/core"
	applog "deptbudget/internal/log"
	"deptbudget/internal/report"
	"deptbudget/internal/storage"
)

// Store is the persistence surface the handlers need. *storage.Repository
// implements it; tests substitute fakes.
type Store interface {
	ListExpenses(ctx context.Context, f storage.Filter, order storage.Order) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	GetBudget(ctx context.Context, academicYear string) (core.Budget, error)
	UpsertProposedBudget(ctx context.Context, academicYear string, amounts core.BudgetAmounts) (core.Budget, error)
	UpdateAllottedBudget(ctx context.Context, academicYear string, amounts core.BudgetAmounts) (core.Budget, error)
	Ping(ctx context.Context) error
}

// Options carries the report branding handed to the exporters.
type Options struct {
	Institute  string
	Department string
	AssetsDir  string

	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

type Server struct {
	http.Server

	store       Store
	opts        Options
	logger      *applog.Logger
	structured  *applog.StructuredLogger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// summaryCache holds dashboard aggregates keyed by the request filter.
	// Any write purges it.
	summaryCache *cache.LRUCache[report.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, logger *applog.Logger, opts Options) *Server {
	if opts.SummaryCacheSize <= 0 {
		opts.SummaryCacheSize = 64
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:        store,
		opts:         opts,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		structured:   applog.NewStructuredLogger(logger),
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		summaryCache: cache.NewLRUCache[report.Summary](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/expenses", s.withSecurityHeaders(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.withSecurityHeaders(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/expenses", s.withSecurityHeaders(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses", s.withSecurityHeaders(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/budget/{year}", s.withSecurityHeaders(s.handleGetBudget))
	mux.HandleFunc("POST /api/budget/proposed", s.withSecurityHeaders(s.handleProposedBudget))
	mux.HandleFunc("POST /api/budget/allotted", s.withSecurityHeaders(s.handleAllottedBudget))

	mux.HandleFunc("GET /api/dashboard/summary", s.withSecurityHeaders(s.handleDashboardSummary))

	mux.HandleFunc("GET /api/export/pdf", s.withSecurityHeaders(s.handleExportPDF))
	mux.HandleFunc("GET /api/export/excel", s.withSecurityHeaders(s.handleExportExcel))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey,
			s.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, clientIP)

		// Writes and exports are rate limited; plain reads are not.
		if r.Method != http.MethodGet || isExportPath(r.URL.Path) {
			if !s.rateLimiter.allow(clientIP, s.metrics) {
				s.logger.WarnContext(ctx, "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isExportPath(path string) bool {
	return path == "/api/export/pdf" || path == "/api/export/excel"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
