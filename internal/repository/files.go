package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

type DocumentFileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, error)
	GetByTenantAndHash(ctx context.Context, tenantID uuid.UUID, hash []byte) (*entity.DocumentFile, error)
	Create(ctx context.Context, tenantID uuid.UUID, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.DocumentFile, error)
	UpsertByHash(ctx context.Context, tenantID uuid.UUID, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.DocumentFile, bool, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.DocumentFile, error)
}

type documentFileRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentFileRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentFileRepository {
	return &documentFileRepo{pool: pool, logger: logger}
}

const fileColumns = `id, tenant_id, source_path, content_hash, filename, file_ext, file_size, uploaded_at`

func scanFile(row pgx.Row) (*entity.DocumentFile, error) {
	var f entity.DocumentFile
	err := row.Scan(&f.ID, &f.TenantID, &f.SourcePath, &f.ContentHash, &f.Filename, &f.FileExt, &f.FileSize, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *documentFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM document_files WHERE id = $1`, id)
	f, err := scanFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document file", "file_id", id, "error", err)
		return nil, err
	}
	return f, nil
}

func (r *documentFileRepo) GetByTenantAndHash(ctx context.Context, tenantID uuid.UUID, hash []byte) (*entity.DocumentFile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM document_files WHERE tenant_id = $1 AND content_hash = $2`,
		tenantID, hash)
	f, err := scanFile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document file by hash", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	return f, nil
}

func (r *documentFileRepo) Create(ctx context.Context, tenantID uuid.UUID, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.DocumentFile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO document_files (tenant_id, source_path, content_hash, filename, file_ext, file_size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+fileColumns,
		tenantID, sourcePath, hash, filename, ext, size, uploadedAt)

	f, err := scanFile(row)
	if err != nil {
		r.logger.Error("failed to create document file", "tenant_id", tenantID, "source_path", sourcePath, "filename", filename, "error", err)
		return nil, err
	}
	return f, nil
}

// UpsertByHash returns the existing row when the same content was already
// ingested for this tenant; the bool reports whether it was a duplicate.
func (r *documentFileRepo) UpsertByHash(ctx context.Context, tenantID uuid.UUID, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.DocumentFile, bool, error) {
	if existing, err := r.GetByTenantAndHash(ctx, tenantID, hash); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	f, err := r.Create(ctx, tenantID, sourcePath, filename, ext, size, hash, uploadedAt)
	if err != nil {
		r.logger.Error("failed to upsert document file by hash", "tenant_id", tenantID, "source_path", sourcePath, "filename", filename, "error", err)
		return nil, false, err
	}
	return f, false, nil
}

func (r *documentFileRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.DocumentFile, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+fileColumns+` FROM document_files WHERE tenant_id = $1 ORDER BY uploaded_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		r.logger.Error("failed to list document files", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.DocumentFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
