package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/findoc-io/findoc-analyzer/internal/common"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathUUID(w, r, "tenant id")
	if !ok {
		return
	}
	files, err := s.files.ListByTenant(r.Context(), tenantID, queryLimit(r))
	if err != nil {
		common.InternalResponse(w, "failed to list documents")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "document id")
	if !ok {
		return
	}
	file, err := s.files.GetByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "document not found")
		return
	}
	if err != nil {
		common.InternalResponse(w, "failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "document id")
	if !ok {
		return
	}
	data, err := s.exporter.ExportPortfolioXLSX(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "no portfolio extracted for this document")
		return
	}
	if err != nil {
		s.logger.Error("export failed", "file_id", id, "error", err)
		common.InternalResponse(w, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "portfolio-"+id.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "document id")
	if !ok {
		return
	}
	html, err := s.reporter.RenderPortfolioHTML(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "no portfolio extracted for this document")
		return
	}
	if err != nil {
		s.logger.Error("report failed", "file_id", id, "error", err)
		common.InternalResponse(w, "report failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func queryLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
