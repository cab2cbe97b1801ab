package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/common"
)

var knownJobStatuses = map[string]struct{}{
	string(constants.JobStatusQueued):  {},
	string(constants.JobStatusRunning): {},
	string(constants.JobStatusTextOK):  {},
	string(constants.JobStatusParsed):  {},
	string(constants.JobStatusLLMOK):   {},
	string(constants.JobStatusFailed):  {},
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "job id")
	if !ok {
		return
	}
	job, err := s.jobs.GetByID(r.Context(), id)
	if errors.Is(err, common.ErrNotFound) {
		common.NotFoundResponse(w, "job not found")
		return
	}
	if err != nil {
		common.InternalResponse(w, "failed to get job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathUUID(w, r, "tenant id")
	if !ok {
		return
	}

	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" {
		if _, known := knownJobStatuses[status]; !known {
			common.BadRequestf(w, "unknown status %q", status)
			return
		}
	}

	jobs, err := s.jobs.ListByTenant(r.Context(), tenantID, status, queryLimit(r))
	if err != nil {
		common.InternalResponse(w, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleReparseJob reruns the heuristic parse over the job's stored document
// text. Useful after resolver changes without re-reading the source file.
func (s *Server) handleReparseJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "job id")
	if !ok {
		return
	}
	if _, err := s.jobs.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.NotFoundResponse(w, "job not found")
		} else {
			common.InternalResponse(w, "failed to get job")
		}
		return
	}

	portfolio, err := s.processor.Parse.Run(r.Context(), id, nil)
	if err != nil {
		s.logger.Error("reparse failed", "job_id", id, "error", err)
		common.BadRequestf(w, "reparse: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}
