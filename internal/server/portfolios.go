package server

import (
	"errors"
	"net/http"

	"github.com/findoc-io/findoc-analyzer/internal/common"
)

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "portfolio id")
	if !ok {
		return
	}
	p, err := s.portfolios.GetByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "portfolio not found")
		return
	}
	if err != nil {
		common.InternalResponse(w, "failed to get portfolio")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetPortfolioByFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "document id")
	if !ok {
		return
	}
	p, err := s.portfolios.GetByFileID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "no portfolio extracted for this document")
		return
	}
	if err != nil {
		common.InternalResponse(w, "failed to get portfolio")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathUUID(w, r, "tenant id")
	if !ok {
		return
	}
	portfolios, err := s.portfolios.ListByTenant(r.Context(), tenantID, queryLimit(r))
	if err != nil {
		common.InternalResponse(w, "failed to list portfolios")
		return
	}
	writeJSON(w, http.StatusOK, portfolios)
}
