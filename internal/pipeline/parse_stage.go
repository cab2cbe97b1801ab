package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
	"github.com/findoc-io/findoc-analyzer/internal/pdftext"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

// Config holds thresholds and behavior flags for the parse stages.
type Config struct {
	MinConfidence float32 // default 0.60
}

type ParseStage struct {
	Logger         *slog.Logger
	Cfg            Config
	JobsRepo       repository.ExtractJobRepository
	PortfoliosRepo repository.PortfolioRepository
	Engine         *extract.Engine
}

func NewParseStage(
	logger *slog.Logger,
	cfg Config,
	jobs repository.ExtractJobRepository,
	portfolios repository.PortfolioRepository,
	engine *extract.Engine,
) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.60
	}
	if engine == nil {
		engine = extract.NewEngine(logger)
	}
	return &ParseStage{
		Logger:         logger,
		Cfg:            cfg,
		JobsRepo:       jobs,
		PortfoliosRepo: portfolios,
		Engine:         engine,
	}
}

// Run executes the heuristic parse for an existing job. When doc is nil the
// stage rebuilds it from the stored document text, so a job can be re-parsed
// long after the text stage ran.
func (s *ParseStage) Run(ctx context.Context, jobID uuid.UUID, doc *extract.Document) (*entity.Portfolio, error) {
	job, err := s.JobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if doc == nil {
		if job.DocumentText == nil || *job.DocumentText == "" {
			return nil, fmt.Errorf("job not ready for parse: status=%s document_text_empty=true", job.Status)
		}
		doc = &extract.Document{
			Text:   *job.DocumentText,
			Tables: pdftext.TablesFromText(*job.DocumentText),
		}
	}

	s.Logger.Info("parse start",
		"job_id", job.ID, "file_id", job.FileID,
		"text_bytes", len(doc.Text), "tables", len(doc.Tables),
	)

	p := s.Engine.Extract(*doc)
	p.TenantID = job.TenantID
	p.FileID = job.FileID

	stored, err := s.PortfoliosRepo.Upsert(ctx, p)
	if err != nil {
		_ = s.JobsRepo.FinishFailure(ctx, job.ID, err.Error())
		return nil, fmt.Errorf("upsert portfolio: %w", err)
	}

	needsReview := stored.Confidence.Overall < s.Cfg.MinConfidence

	extracted, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("marshal portfolio: %w", err)
	}
	if err := s.JobsRepo.FinishParseSuccess(ctx, job.ID, stored.ID, extracted, stored.Confidence.Overall, needsReview); err != nil {
		return nil, err
	}

	s.Logger.Info("parsed successfully",
		"job_id", job.ID, "portfolio_id", stored.ID,
		"securities", len(stored.Securities),
		"allocations", len(stored.Allocations),
		"confidence", stored.Confidence.Overall,
		"needs_review", needsReview,
	)
	return stored, nil
}
