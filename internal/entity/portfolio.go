package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio is the structured model recovered from a financial document.
type Portfolio struct {
	ID       uuid.UUID `json:"id,omitempty"`
	TenantID uuid.UUID `json:"tenant_id,omitempty"`
	FileID   uuid.UUID `json:"file_id,omitempty"`

	Title         string           `json:"title,omitempty"`
	ValuationDate *time.Time       `json:"valuation_date,omitempty"`
	TotalValue    *decimal.Decimal `json:"total_value,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Owner         string           `json:"owner,omitempty"`
	Manager       string           `json:"manager,omitempty"`

	Securities  []Security        `json:"securities,omitempty"`
	Allocations []Allocation      `json:"allocations,omitempty"`
	Performance *Performance      `json:"performance,omitempty"`
	Confidence  SectionConfidence `json:"confidence"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Security is a single holding identified in the document.
type Security struct {
	ISIN           string           `json:"isin,omitempty"`
	CUSIP          string           `json:"cusip,omitempty"`
	SEDOL          string           `json:"sedol,omitempty"`
	Name           string           `json:"name,omitempty"`
	InstrumentType string           `json:"instrument_type,omitempty"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Value          *decimal.Decimal `json:"value,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	WeightPct      *decimal.Decimal `json:"weight_pct,omitempty"`
}

// Allocation is one row of the asset-allocation breakdown.
type Allocation struct {
	AssetClass string           `json:"asset_class"`
	Label      string           `json:"label,omitempty"` // original label from the document
	Value      *decimal.Decimal `json:"value,omitempty"`
	Percent    *decimal.Decimal `json:"percent,omitempty"`
}

// Performance holds the returns recovered from a performance table,
// keyed by canonical period. All values are percentages.
type Performance struct {
	YTD            *decimal.Decimal `json:"ytd,omitempty"`
	OneMonth       *decimal.Decimal `json:"one_month,omitempty"`
	ThreeMonth     *decimal.Decimal `json:"three_month,omitempty"`
	SixMonth       *decimal.Decimal `json:"six_month,omitempty"`
	OneYear        *decimal.Decimal `json:"one_year,omitempty"`
	ThreeYear      *decimal.Decimal `json:"three_year,omitempty"`
	FiveYear       *decimal.Decimal `json:"five_year,omitempty"`
	TenYear        *decimal.Decimal `json:"ten_year,omitempty"`
	SinceInception *decimal.Decimal `json:"since_inception,omitempty"`
}

// IsEmpty reports whether no period was populated.
func (p *Performance) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.YTD == nil && p.OneMonth == nil && p.ThreeMonth == nil &&
		p.SixMonth == nil && p.OneYear == nil && p.ThreeYear == nil &&
		p.FiveYear == nil && p.TenYear == nil && p.SinceInception == nil
}

// SectionConfidence carries per-section and overall extraction confidence (0..1).
type SectionConfidence struct {
	Metadata    float32 `json:"metadata"`
	Securities  float32 `json:"securities"`
	Allocations float32 `json:"allocations"`
	Performance float32 `json:"performance"`
	Overall     float32 `json:"overall"`
}
