// Package pipeline coordinates the extraction stages for one document:
// text acquisition, heuristic parse, and the optional LLM gap-fill.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/pdftext"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

type TextStage struct {
	FilesRepo     repository.DocumentFileRepository
	JobsRepo      repository.ExtractJobRepository
	TextExtractor pdftext.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(files repository.DocumentFileRepository, jobs repository.ExtractJobRepository, tx pdftext.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{FilesRepo: files, JobsRepo: jobs, TextExtractor: tx, Logger: logger}
}

// Run starts an extract_job, acquires the document text, and persists it.
// The parse stage is NOT called here.
func (s *TextStage) Run(ctx context.Context, fileID uuid.UUID) (uuid.UUID, pdftext.Result, error) {
	row, err := s.FilesRepo.GetByID(ctx, fileID)
	if err != nil {
		return uuid.Nil, pdftext.Result{}, fmt.Errorf("get file: %w", err)
	}

	format := constants.MapExtToFormat(row.FileExt)
	if format == "" {
		return uuid.Nil, pdftext.Result{}, fmt.Errorf("unsupported format: %s", row.FileExt)
	}

	job, err := s.JobsRepo.Start(ctx, row.ID, row.TenantID, format)
	if err != nil {
		return uuid.Nil, pdftext.Result{}, err
	}

	res, err := s.TextExtractor.Extract(ctx, row.SourcePath)
	if err != nil {
		_ = s.JobsRepo.FinishFailure(ctx, job.ID, err.Error())
		return job.ID, res, err
	}

	if res.Confidence > 0 && res.Confidence < constants.TextConfidenceThreshold {
		s.Logger.Warn("text layer looks weak", "file_id", fileID, "job_id", job.ID, "confidence", res.Confidence)
	}

	if err := s.JobsRepo.FinishTextSuccess(ctx, job.ID, res.Doc.Text, res.Method, res.Confidence); err != nil {
		return job.ID, res, err
	}
	return job.ID, res, nil
}
