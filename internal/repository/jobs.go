package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

type ExtractJobRepository interface {
	Start(ctx context.Context, fileID, tenantID uuid.UUID, format string) (*entity.ExtractJob, error)
	FinishTextSuccess(ctx context.Context, jobID uuid.UUID, documentText, method string, confidence float32) error
	FinishParseSuccess(ctx context.Context, jobID uuid.UUID, portfolioID uuid.UUID, extractedJSON []byte, confidence float32, needsReview bool) error
	FinishLLMSuccess(ctx context.Context, jobID uuid.UUID, modelName string, modelParams map[string]any) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewExtractJobRepository(pool *pgxpool.Pool, log *slog.Logger) ExtractJobRepository {
	return &extractJobRepo{pool: pool, log: log}
}

const jobColumns = `id, file_id, tenant_id, portfolio_id, format, started_at, finished_at, status,
	error_message, extraction_confidence, needs_review, document_text, extracted_json, model_name, model_params`

func scanJob(row pgx.Row) (*entity.ExtractJob, error) {
	var j entity.ExtractJob
	err := row.Scan(&j.ID, &j.FileID, &j.TenantID, &j.PortfolioID, &j.Format, &j.StartedAt, &j.FinishedAt,
		&j.Status, &j.ErrorMessage, &j.ExtractionConfidence, &j.NeedsReview, &j.DocumentText,
		&j.ExtractedJSON, &j.ModelName, &j.ModelParams)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *extractJobRepo) Start(ctx context.Context, fileID, tenantID uuid.UUID, format string) (*entity.ExtractJob, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO extract_jobs (file_id, tenant_id, format, status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+jobColumns,
		fileID, tenantID, format, constants.JobStatusRunning)

	job, err := scanJob(row)
	if err != nil {
		r.log.Error("extract_job start failed", "file_id", fileID, "err", err)
		return nil, err
	}
	r.log.Info("extract_job started", "job_id", job.ID, "file_id", fileID, "format", format)
	return job, nil
}

func (r *extractJobRepo) FinishTextSuccess(ctx context.Context, jobID uuid.UUID, documentText, method string, confidence float32) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE extract_jobs
		SET document_text = $2, model_name = $3, extraction_confidence = $4, status = $5
		WHERE id = $1`,
		jobID, documentText, method, confidence, constants.JobStatusTextOK)
	if err != nil {
		r.log.Error("extract_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job text stage done", "job_id", jobID, "method", method, "confidence", confidence)
	return nil
}

func (r *extractJobRepo) FinishParseSuccess(ctx context.Context, jobID uuid.UUID, portfolioID uuid.UUID, extractedJSON []byte, confidence float32, needsReview bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE extract_jobs
		SET portfolio_id = $2, extracted_json = $3, extraction_confidence = $4, needs_review = $5,
		    finished_at = $6, status = $7
		WHERE id = $1`,
		jobID, portfolioID, extractedJSON, confidence, needsReview, time.Now(), constants.JobStatusParsed)
	if err != nil {
		r.log.Error("extract_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job parsed", "job_id", jobID, "portfolio_id", portfolioID, "confidence", confidence, "needs_review", needsReview)
	return nil
}

func (r *extractJobRepo) FinishLLMSuccess(ctx context.Context, jobID uuid.UUID, modelName string, modelParams map[string]any) error {
	var params []byte
	if modelParams != nil {
		if b, err := json.Marshal(modelParams); err == nil {
			params = b
		}
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE extract_jobs
		SET model_name = $2, model_params = $3, finished_at = $4, status = $5
		WHERE id = $1`,
		jobID, modelName, params, time.Now(), constants.JobStatusLLMOK)
	if err != nil {
		r.log.Error("extract_job finish(LLM_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job llm stage done", "job_id", jobID, "model", modelName)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE extract_jobs
		SET finished_at = $2, status = $3, error_message = $4
		WHERE id = $1`,
		jobID, time.Now(), constants.JobStatusFailed, message)
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM extract_jobs WHERE id = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to get extract job", "job_id", jobID, "err", err)
		return nil, err
	}
	return job, nil
}

func (r *extractJobRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + jobColumns + ` FROM extract_jobs WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list extract jobs", "tenant_id", tenantID, "err", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.ExtractJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
