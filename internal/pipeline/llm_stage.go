package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/llm"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

// LLMStage fills the gaps heuristics left behind. It only runs when the
// parse stage came back incomplete or below the confidence floor, and its
// output never overrides a heuristically extracted value.
type LLMStage struct {
	Logger         *slog.Logger
	Cfg            Config
	JobsRepo       repository.ExtractJobRepository
	FilesRepo      repository.DocumentFileRepository
	PortfoliosRepo repository.PortfolioRepository
	TenantsRepo    repository.TenantRepository
	Extractor      llm.FieldExtractor
	ModelName      string
}

func NewLLMStage(
	logger *slog.Logger,
	cfg Config,
	jobs repository.ExtractJobRepository,
	files repository.DocumentFileRepository,
	portfolios repository.PortfolioRepository,
	tenants repository.TenantRepository,
	fe llm.FieldExtractor,
	modelName string,
) *LLMStage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.60
	}
	return &LLMStage{
		Logger:         logger,
		Cfg:            cfg,
		JobsRepo:       jobs,
		FilesRepo:      files,
		PortfoliosRepo: portfolios,
		TenantsRepo:    tenants,
		Extractor:      fe,
		ModelName:      modelName,
	}
}

// ShouldRun decides whether the gap-fill is worth a model call.
func (s *LLMStage) ShouldRun(p *entity.Portfolio) ([]string, bool) {
	missing := MissingSections(p)
	if len(missing) == 0 && p.Confidence.Overall >= s.Cfg.MinConfidence {
		return nil, false
	}
	if len(missing) == 0 {
		// low confidence across the board: let the model look at everything
		missing = []string{"metadata", "securities", "allocations", "performance"}
	}
	return missing, true
}

// Run asks the model to fill the missing sections, merges the answer into
// the stored portfolio, and records the model call on the job.
func (s *LLMStage) Run(ctx context.Context, jobID uuid.UUID, p *entity.Portfolio, docText string) (*entity.Portfolio, error) {
	job, err := s.JobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return p, fmt.Errorf("load job: %w", err)
	}

	sections, run := s.ShouldRun(p)
	if !run {
		s.Logger.Debug("llm gap-fill skipped", "job_id", jobID, "confidence", p.Confidence.Overall)
		return p, nil
	}

	defaultCurrency := "USD"
	if tenant, err := s.TenantsRepo.GetByID(ctx, p.TenantID); err == nil && tenant.DefaultCurrency != "" {
		defaultCurrency = tenant.DefaultCurrency
	}

	var known []string
	for _, sec := range p.Securities {
		if sec.ISIN != "" {
			known = append(known, sec.ISIN)
		}
	}

	prepConfidence := float32(0)
	if job.ExtractionConfidence != nil {
		prepConfidence = *job.ExtractionConfidence
	}

	filenameHint := ""
	if file, err := s.FilesRepo.GetByID(ctx, job.FileID); err == nil {
		filenameHint = filepath.Base(file.SourcePath)
	}

	req := llm.ExtractRequest{
		DocumentText:     docText,
		FilenameHint:     filenameHint,
		DefaultCurrency:  defaultCurrency,
		WantSections:     sections,
		KnownIdentifiers: known,
		PrepConfidence:   prepConfidence,
	}

	s.Logger.Info("llm gap-fill start",
		"job_id", jobID, "sections", sections,
		"known_identifiers", len(known), "text_bytes", len(docText),
	)

	fields, _, err := s.Extractor.ExtractFields(ctx, req)
	if err != nil {
		// heuristic result stands; the model call failing is not fatal
		s.Logger.Error("llm gap-fill failed", "job_id", jobID, "error", err)
		return p, err
	}

	merged := MergeFields(p, fields, s.Logger)
	stored, err := s.PortfoliosRepo.Upsert(ctx, merged)
	if err != nil {
		return merged, fmt.Errorf("upsert merged portfolio: %w", err)
	}

	params := map[string]any{"sections": sections}
	if fields.ModelConfidence > 0 {
		params["model_confidence"] = fields.ModelConfidence
	}
	if err := s.JobsRepo.FinishLLMSuccess(ctx, jobID, s.ModelName, params); err != nil {
		return stored, err
	}

	s.Logger.Info("llm gap-fill done",
		"job_id", jobID,
		"securities", len(stored.Securities),
		"allocations", len(stored.Allocations),
		"confidence", stored.Confidence.Overall,
	)
	return stored, nil
}
