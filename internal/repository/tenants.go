package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

type TenantRepository interface {
	Create(ctx context.Context, name, defaultCurrency string, contactEmail *string) (*entity.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	GetByName(ctx context.Context, name string) (*entity.Tenant, error)
	List(ctx context.Context) ([]*entity.Tenant, error)
}

type tenantRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTenantRepository(pool *pgxpool.Pool, logger *slog.Logger) TenantRepository {
	return &tenantRepo{pool: pool, logger: logger}
}

const tenantColumns = `id, name, default_currency, contact_email, created_at, updated_at`

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var t entity.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.DefaultCurrency, &t.ContactEmail, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepo) Create(ctx context.Context, name, defaultCurrency string, contactEmail *string) (*entity.Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (name, default_currency, contact_email)
		VALUES ($1, $2, $3)
		RETURNING `+tenantColumns,
		name, defaultCurrency, contactEmail)

	t, err := scanTenant(row)
	if err != nil {
		r.logger.Error("failed to create tenant", "name", name, "error", err)
		return nil, err
	}
	r.logger.Info("tenant created", "tenant_id", t.ID, "name", t.Name)
	return t, nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get tenant", "tenant_id", id, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *tenantRepo) GetByName(ctx context.Context, name string) (*entity.Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE name = $1`, name)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get tenant by name", "name", name, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *tenantRepo) List(ctx context.Context) ([]*entity.Tenant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		r.logger.Error("failed to list tenants", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
