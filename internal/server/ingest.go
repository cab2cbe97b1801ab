package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/internal/common"
)

type ingestFileRequest struct {
	TenantID string `json:"tenant_id"`
	Path     string `json:"path"`
	// Process runs the extraction pipeline right after ingest. Defaults to true.
	Process *bool `json:"process,omitempty"`
}

type ingestFileResponse struct {
	FileID       string `json:"file_id"`
	Deduplicated bool   `json:"deduplicated"`
	ContentHash  string `json:"content_hash_hex"`
	FileExt      string `json:"file_ext"`
	UploadedAt   string `json:"uploaded_at"`
	SourcePath   string `json:"source_path"`
	JobID        string `json:"job_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	var req ingestFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tenantID, ok := s.requireTenant(w, r, req.TenantID)
	if !ok {
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		common.BadRequest(w, "path is required")
		return
	}

	s.logger.Info("starting file ingest", "tenant_id", tenantID, "path", path)
	res, err := s.ingestor.IngestPath(r.Context(), tenantID, path)
	if err != nil {
		common.BadRequestf(w, "ingest: %v", err)
		return
	}
	s.logger.Info("file ingest succeeded",
		"tenant_id", tenantID, "file_id", res.FileID, "deduplicated", res.Deduplicated)

	resp := ingestFileResponse{
		FileID:       res.FileID,
		Deduplicated: res.Deduplicated,
		ContentHash:  res.HashHex,
		FileExt:      res.FileExt,
		UploadedAt:   res.UploadedAt.UTC().Format(time.RFC3339),
		SourcePath:   res.SourcePath,
	}

	if req.Process == nil || *req.Process {
		fileID, _ := uuid.Parse(res.FileID)
		jobID, _, err := s.processor.ProcessFile(r.Context(), fileID)
		if jobID != uuid.Nil {
			resp.JobID = jobID.String()
		}
		if err != nil {
			s.logger.Error("pipeline.failed", "file_id", res.FileID, "err", err)
			resp.Error = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type ingestDirectoryRequest struct {
	TenantID   string `json:"tenant_id"`
	RootPath   string `json:"root_path"`
	SkipHidden *bool  `json:"skip_hidden,omitempty"`
	Process    *bool  `json:"process,omitempty"`
}

type ingestDirectoryResponse struct {
	Scanned      uint32               `json:"scanned"`
	Matched      uint32               `json:"matched"`
	Succeeded    uint32               `json:"succeeded"`
	Deduplicated uint32               `json:"deduplicated"`
	Failed       uint32               `json:"failed"`
	Processed    int                  `json:"processed"`
	Results      []ingestFileResponse `json:"results"`
}

func (s *Server) handleIngestDirectory(w http.ResponseWriter, r *http.Request) {
	var req ingestDirectoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tenantID, ok := s.requireTenant(w, r, req.TenantID)
	if !ok {
		return
	}
	root := strings.TrimSpace(req.RootPath)
	if root == "" {
		common.BadRequest(w, "root_path is required")
		return
	}
	skipHidden := req.SkipHidden == nil || *req.SkipHidden

	s.logger.Info("starting directory ingest", "tenant_id", tenantID, "root", root)
	results, stats, err := s.ingestor.IngestDirectory(r.Context(), tenantID, root, skipHidden)
	if err != nil {
		common.BadRequestf(w, "ingest directory: %v", err)
		return
	}

	resp := ingestDirectoryResponse{
		Scanned:      stats.Scanned,
		Matched:      stats.Matched,
		Succeeded:    stats.Succeeded,
		Deduplicated: stats.Deduplicated,
		Failed:       stats.Failed,
	}
	byFile := make(map[uuid.UUID]int, len(results))
	for _, res := range results {
		fr := ingestFileResponse{
			FileID:       res.FileID,
			Deduplicated: res.Deduplicated,
			ContentHash:  res.HashHex,
			FileExt:      res.FileExt,
			SourcePath:   res.SourcePath,
			Error:        res.Err,
		}
		if !res.UploadedAt.IsZero() {
			fr.UploadedAt = res.UploadedAt.UTC().Format(time.RFC3339)
		}
		if id, err := uuid.Parse(res.FileID); err == nil && res.Err == "" {
			byFile[id] = len(resp.Results)
		}
		resp.Results = append(resp.Results, fr)
	}

	if req.Process == nil || *req.Process {
		fileIDs := make([]uuid.UUID, 0, len(byFile))
		for id := range byFile {
			fileIDs = append(fileIDs, id)
		}
		outcomes := s.processor.ProcessBatch(r.Context(), fileIDs)
		for _, o := range outcomes {
			idx, known := byFile[o.FileID]
			if !known {
				continue
			}
			if o.JobID != uuid.Nil {
				resp.Results[idx].JobID = o.JobID.String()
			}
			if o.Err != nil {
				resp.Results[idx].Error = o.Err.Error()
			}
		}
		resp.Processed = len(fileIDs)
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireTenant validates the tenant_id field and confirms the tenant exists.
func (s *Server) requireTenant(w http.ResponseWriter, r *http.Request, raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		common.BadRequest(w, "tenant_id is required")
		return uuid.Nil, false
	}
	tenantID, err := uuid.Parse(raw)
	if err != nil {
		common.BadRequest(w, "tenant_id must be a UUID")
		return uuid.Nil, false
	}
	if _, err := s.tenants.GetByID(r.Context(), tenantID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.BadRequest(w, "tenant not found")
		} else {
			common.InternalResponse(w, "failed to look up tenant")
		}
		return uuid.Nil, false
	}
	return tenantID, true
}
