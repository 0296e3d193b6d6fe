package http

import (
	"net/http"
	"strconv"

	applog "deptbudget/internal/log"
	"deptbudget/internal/report"
	"deptbudget/internal/storage"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	pdfFilename  = "department_budget_report.pdf"
	xlsxFilename = "budget_report.xlsx"
)

// handleExportPDF streams the filtered expense report as a PDF attachment.
// Nothing is written to the client until the whole document rendered.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), filter, storage.DateAsc)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export query failed",
			applog.FieldError, err.Error(), applog.FieldFormat, "pdf")
		respondInternalError(w)
		return
	}

	out, err := report.BuildDocument(expenses, report.DocumentOptions{
		Institute:  s.opts.Institute,
		Department: s.opts.Department,
		PeriodFrom: filter.From.String(),
		PeriodTo:   filter.To.String(),
		AssetsDir:  s.opts.AssetsDir,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Document render failed",
			applog.FieldError, err.Error(), applog.FieldFormat, "pdf",
			applog.FieldRowCount, len(expenses))
		respondInternalError(w)
		return
	}

	s.structured.LogExportGenerated(r.Context(), "pdf", len(expenses), len(out))
	w.Header().Set("Content-Type", pdfContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+pdfFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleExportExcel streams the filtered expenses as an XLSX attachment.
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), filter, storage.DateAsc)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export query failed",
			applog.FieldError, err.Error(), applog.FieldFormat, "xlsx")
		respondInternalError(w)
		return
	}

	out, err := report.BuildSpreadsheet(expenses, report.SpreadsheetOptions{
		Institute:  s.opts.Institute,
		Department: s.opts.Department,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Spreadsheet render failed",
			applog.FieldError, err.Error(), applog.FieldFormat, "xlsx",
			applog.FieldRowCount, len(expenses))
		respondInternalError(w)
		return
	}

	s.structured.LogExportGenerated(r.Context(), "xlsx", len(expenses), len(out))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+xlsxFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
