// Package server exposes the analyzer over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/export"
	"github.com/findoc-io/findoc-analyzer/internal/ingest"
	"github.com/findoc-io/findoc-analyzer/internal/pipeline"
	"github.com/findoc-io/findoc-analyzer/internal/report"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

// Server wires repositories, the ingestor and the pipeline behind HTTP handlers.
type Server struct {
	logger *slog.Logger

	tenants    repository.TenantRepository
	files      repository.DocumentFileRepository
	jobs       repository.ExtractJobRepository
	portfolios repository.PortfolioRepository

	ingestor  ingest.Ingestor
	processor *pipeline.Processor
	exporter  *export.Service
	reporter  *report.Service

	// health pings the backing store; the handler reports 503 when it fails.
	health func(ctx context.Context) error
}

func New(
	logger *slog.Logger,
	tenants repository.TenantRepository,
	files repository.DocumentFileRepository,
	jobs repository.ExtractJobRepository,
	portfolios repository.PortfolioRepository,
	ingestor ingest.Ingestor,
	processor *pipeline.Processor,
	exporter *export.Service,
	reporter *report.Service,
	health func(ctx context.Context) error,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = func(context.Context) error { return nil }
	}
	return &Server{
		logger:     logger,
		tenants:    tenants,
		files:      files,
		jobs:       jobs,
		portfolios: portfolios,
		ingestor:   ingestor,
		processor:  processor,
		exporter:   exporter,
		reporter:   reporter,
		health:     health,
	}
}

// Routes registers every handler on a fresh mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /api/tenants", s.handleCreateTenant)
	mux.HandleFunc("GET /api/tenants", s.handleListTenants)
	mux.HandleFunc("GET /api/tenants/{id}", s.handleGetTenant)
	mux.HandleFunc("GET /api/tenants/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/tenants/{id}/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/tenants/{id}/portfolios", s.handleListPortfolios)

	mux.HandleFunc("POST /api/ingest/file", s.handleIngestFile)
	mux.HandleFunc("POST /api/ingest/directory", s.handleIngestDirectory)

	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /api/documents/{id}/portfolio", s.handleGetPortfolioByFile)
	mux.HandleFunc("GET /api/documents/{id}/export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("GET /api/documents/{id}/report.html", s.handleReportHTML)

	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/jobs/{id}/reparse", s.handleReparseJob)

	mux.HandleFunc("GET /api/portfolios/{id}", s.handleGetPortfolio)

	return s.withRequestID(mux)
}

// withRequestID tags every request with an ID and logs the access line.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := common.WithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-Id", reqID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path,
			"req_id", reqID, "duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		common.WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathUUID parses the {id} path segment, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, field string) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		common.BadRequestf(w, "%s must be a UUID", field)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a request body, writing a 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		common.BadRequestf(w, "invalid request body: %v", err)
		return false
	}
	return true
}
