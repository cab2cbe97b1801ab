package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

// Processor coordinates text acquisition, heuristic parse, and the optional
// LLM gap-fill for one document at a time.
type Processor struct {
	Logger  *slog.Logger
	Text    *TextStage
	Parse   *ParseStage
	LLM     *LLMStage // nil when no provider is configured
	Workers int
}

func NewProcessor(logger *slog.Logger, text *TextStage, parse *ParseStage, llmStage *LLMStage, workers int) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Processor{Logger: logger, Text: text, Parse: parse, LLM: llmStage, Workers: workers}
}

// ProcessFile runs the full pipeline for one ingested file and returns the
// job ID and the stored portfolio.
func (p *Processor) ProcessFile(ctx context.Context, fileID uuid.UUID) (uuid.UUID, *entity.Portfolio, error) {
	jobID, res, err := p.Text.Run(ctx, fileID)
	if err != nil {
		p.Logger.Error("processor.text.failed", "file_id", fileID, "err", err)
		return jobID, nil, err
	}
	p.Logger.Info("processor.text.ok",
		"file_id", fileID,
		"job_id", jobID,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
	)

	portfolio, err := p.Parse.Run(ctx, jobID, &res.Doc)
	if err != nil {
		p.Logger.Error("processor.parse.failed", "job_id", jobID, "err", err)
		return jobID, nil, err
	}
	p.Logger.Info("processor.parse.ok", "job_id", jobID, "confidence", portfolio.Confidence.Overall)

	if p.LLM != nil {
		merged, err := p.LLM.Run(ctx, jobID, portfolio, res.Doc.Text)
		if err != nil {
			// the heuristic result is already stored; a failed gap-fill
			// downgrades to a warning
			p.Logger.Warn("processor.llm.failed", "job_id", jobID, "err", err)
			return jobID, portfolio, nil
		}
		portfolio = merged
	}
	return jobID, portfolio, nil
}

// FileOutcome is the per-file result of a batch run.
type FileOutcome struct {
	FileID uuid.UUID
	JobID  uuid.UUID
	Err    error
}

// ProcessBatch fans the files out over a bounded worker pool. A failing file
// does not abort the batch.
func (p *Processor) ProcessBatch(ctx context.Context, fileIDs []uuid.UUID) []FileOutcome {
	outcomes := make([]FileOutcome, len(fileIDs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)

	for idx, fileID := range fileIDs {
		g.Go(func() error {
			jobID, _, err := p.ProcessFile(ctx, fileID)
			mu.Lock()
			outcomes[idx] = FileOutcome{FileID: fileID, JobID: jobID, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	p.Logger.Info("batch processed", "total", len(fileIDs), "failed", failed)
	return outcomes
}
