package llm

import "context"

// SecurityFields is one holding as returned by the model. Numeric values are
// strings so locale quirks survive transport and get parsed on our side.
type SecurityFields struct {
	ISIN     string `json:"isin,omitempty"`
	CUSIP    string `json:"cusip,omitempty"`
	SEDOL    string `json:"sedol,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Price    string `json:"price,omitempty"`
	Value    string `json:"value,omitempty"`
	Weight   string `json:"weight,omitempty"` // percent of portfolio
	Currency string `json:"currency,omitempty"`
}

type AllocationFields struct {
	AssetClass string `json:"asset_class"`
	Value      string `json:"value,omitempty"`
	Percent    string `json:"percent"`
}

// PortfolioFields is the normalized shape we want from the LLM.
type PortfolioFields struct {
	Title           string             `json:"title,omitempty"`
	ValuationDate   string             `json:"valuation_date,omitempty"` // YYYY-MM-DD
	TotalValue      string             `json:"total_value,omitempty"`    // decimal
	CurrencyCode    string             `json:"currency_code,omitempty"`  // ISO 4217
	Owner           string             `json:"owner,omitempty"`
	Manager         string             `json:"manager,omitempty"`
	Securities      []SecurityFields   `json:"securities,omitempty"`
	Allocations     []AllocationFields `json:"allocations,omitempty"`
	Performance     map[string]string  `json:"performance,omitempty"` // period -> percent
	ModelConfidence float32            `json:"confidence,omitempty"`  // optional (0..1)
}

type ExtractRequest struct {
	DocumentText    string
	FilenameHint    string
	DefaultCurrency string

	// WantSections limits the ask to what the heuristics could not fill
	// (subset of "metadata", "securities", "allocations", "performance").
	WantSections []string

	// KnownIdentifiers are ISINs already extracted; the model should not
	// re-list those holdings.
	KnownIdentifiers []string

	PrepConfidence float32
	FilePath       string
}

// FieldExtractor is the interface our pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (PortfolioFields, []byte /*rawJSON*/, error)
}
