package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

type PortfolioRepository interface {
	// Upsert stores the extracted portfolio, replacing any earlier
	// extraction for the same file.
	Upsert(ctx context.Context, p *entity.Portfolio) (*entity.Portfolio, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Portfolio, error)
	GetByFileID(ctx context.Context, fileID uuid.UUID) (*entity.Portfolio, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Portfolio, error)
}

type portfolioRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPortfolioRepository(pool *pgxpool.Pool, logger *slog.Logger) PortfolioRepository {
	return &portfolioRepo{pool: pool, logger: logger}
}

// The holdings, allocations, performance and confidence sections live in one
// JSONB document; the scalar metadata gets its own columns for querying.
const portfolioColumns = `id, tenant_id, file_id, title, valuation_date, total_value, currency, owner_name, manager_name, doc, created_at, updated_at`

func (r *portfolioRepo) Upsert(ctx context.Context, p *entity.Portfolio) (*entity.Portfolio, error) {
	doc, err := json.Marshal(struct {
		Securities  []entity.Security        `json:"securities,omitempty"`
		Allocations []entity.Allocation      `json:"allocations,omitempty"`
		Performance *entity.Performance      `json:"performance,omitempty"`
		Confidence  entity.SectionConfidence `json:"confidence"`
	}{p.Securities, p.Allocations, p.Performance, p.Confidence})
	if err != nil {
		return nil, fmt.Errorf("marshal portfolio doc: %w", err)
	}

	var totalValue *string
	if p.TotalValue != nil {
		s := p.TotalValue.String()
		totalValue = &s
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO portfolios (tenant_id, file_id, title, valuation_date, total_value, currency, owner_name, manager_name, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (file_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			valuation_date = EXCLUDED.valuation_date,
			total_value = EXCLUDED.total_value,
			currency = EXCLUDED.currency,
			owner_name = EXCLUDED.owner_name,
			manager_name = EXCLUDED.manager_name,
			doc = EXCLUDED.doc,
			updated_at = EXCLUDED.updated_at
		RETURNING `+portfolioColumns,
		p.TenantID, p.FileID, nullable(p.Title), p.ValuationDate, totalValue,
		nullable(p.Currency), nullable(p.Owner), nullable(p.Manager), doc, time.Now())

	out, err := scanPortfolio(row)
	if err != nil {
		r.logger.Error("failed to upsert portfolio", "tenant_id", p.TenantID, "file_id", p.FileID, "error", err)
		return nil, err
	}
	r.logger.Info("portfolio stored", "portfolio_id", out.ID, "file_id", out.FileID, "securities", len(out.Securities))
	return out, nil
}

func (r *portfolioRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Portfolio, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1`, id)
	p, err := scanPortfolio(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get portfolio", "portfolio_id", id, "error", err)
		return nil, err
	}
	return p, nil
}

func (r *portfolioRepo) GetByFileID(ctx context.Context, fileID uuid.UUID) (*entity.Portfolio, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE file_id = $1`, fileID)
	p, err := scanPortfolio(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get portfolio by file", "file_id", fileID, "error", err)
		return nil, err
	}
	return p, nil
}

func (r *portfolioRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*entity.Portfolio, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE tenant_id = $1 ORDER BY updated_at DESC LIMIT $2`,
		tenantID, limit)
	if err != nil {
		r.logger.Error("failed to list portfolios", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPortfolio(row pgx.Row) (*entity.Portfolio, error) {
	var (
		p          entity.Portfolio
		title      *string
		totalValue *string
		currency   *string
		owner      *string
		manager    *string
		doc        []byte
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.FileID, &title, &p.ValuationDate, &totalValue,
		&currency, &owner, &manager, &doc, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Title = deref(title)
	p.Currency = deref(currency)
	p.Owner = deref(owner)
	p.Manager = deref(manager)
	if totalValue != nil {
		d, err := decimal.NewFromString(*totalValue)
		if err != nil {
			return nil, fmt.Errorf("decode total_value: %w", err)
		}
		p.TotalValue = &d
	}

	var sections struct {
		Securities  []entity.Security        `json:"securities"`
		Allocations []entity.Allocation      `json:"allocations"`
		Performance *entity.Performance      `json:"performance"`
		Confidence  entity.SectionConfidence `json:"confidence"`
	}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &sections); err != nil {
			return nil, fmt.Errorf("decode portfolio doc: %w", err)
		}
	}
	p.Securities = sections.Securities
	p.Allocations = sections.Allocations
	p.Performance = sections.Performance
	p.Confidence = sections.Confidence
	return &p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
