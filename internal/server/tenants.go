package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/findoc-io/findoc-analyzer/internal/common"
)

type createTenantRequest struct {
	Name            string  `json:"name"`
	DefaultCurrency string  `json:"default_currency"`
	ContactEmail    *string `json:"contact_email,omitempty"`
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.DefaultCurrency = strings.ToUpper(strings.TrimSpace(req.DefaultCurrency))
	if req.DefaultCurrency == "" {
		req.DefaultCurrency = "USD"
	}

	v := common.NewValidator()
	v.Field("name", req.Name, common.Required)
	v.Field("name", req.Name, func(f string, val interface{}) *common.ValidationError {
		return common.MaxLength(f, val, 120)
	})
	v.Field("default_currency", req.DefaultCurrency, common.CurrencyCode)
	if v.HasErrors() {
		common.BadRequest(w, v.ErrorMessage())
		return
	}

	if existing, err := s.tenants.GetByName(r.Context(), req.Name); err == nil {
		s.logger.Info("tenant already exists", "tenant_id", existing.ID, "name", req.Name)
		writeJSON(w, http.StatusOK, existing)
		return
	} else if !errors.Is(err, common.ErrNotFound) {
		common.InternalResponse(w, "failed to look up tenant")
		return
	}

	tenant, err := s.tenants.Create(r.Context(), req.Name, req.DefaultCurrency, req.ContactEmail)
	if err != nil {
		common.InternalResponse(w, "failed to create tenant")
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.tenants.List(r.Context())
	if err != nil {
		common.InternalResponse(w, "failed to list tenants")
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "tenant id")
	if !ok {
		return
	}
	tenant, err := s.tenants.GetByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "tenant not found")
		return
	}
	if err != nil {
		common.InternalResponse(w, "failed to get tenant")
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}
