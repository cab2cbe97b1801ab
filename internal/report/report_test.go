package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/findoc-io/findoc-analyzer/internal/entity"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func samplePortfolio() *entity.Portfolio {
	valDate := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	return &entity.Portfolio{
		Title:         "Global Balanced Portfolio",
		Owner:         "Jordan Example",
		Currency:      "USD",
		ValuationDate: &valDate,
		TotalValue:    decPtr("1250000"),
		Securities: []entity.Security{
			{ISIN: "US0378331005", Name: "Apple Inc", InstrumentType: "EQUITY", Value: decPtr("230000"), WeightPct: decPtr("18.4")},
			{Name: "Cash Account", InstrumentType: "CASH", Value: decPtr("50000")},
		},
		Allocations: []entity.Allocation{
			{AssetClass: "EQUITY", Label: "Equities", Percent: decPtr("64")},
			{AssetClass: "CASH", Label: "Liquidity", Percent: decPtr("4")},
		},
		Performance: &entity.Performance{YTD: decPtr("5.2"), OneYear: decPtr("11.8")},
		Confidence:  entity.SectionConfidence{Overall: 0.82, Securities: 0.9},
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(samplePortfolio(), "statement.pdf")

	assert.Contains(t, md, "# Global Balanced Portfolio")
	assert.Contains(t, md, "| Valuation date | 2024-03-31 |")
	assert.Contains(t, md, "$1,250,000.00")
	assert.Contains(t, md, "| US0378331005 | Apple Inc | EQUITY |")
	assert.Contains(t, md, "## Asset Allocation")
	assert.Contains(t, md, "| YTD | 5.2 |")
	assert.Contains(t, md, "statement.pdf")
	assert.Contains(t, md, "**0.82**")
}

func TestBuildMarkdownSparsePortfolio(t *testing.T) {
	md := BuildMarkdown(&entity.Portfolio{}, "")

	assert.Contains(t, md, "# Portfolio Statement")
	assert.NotContains(t, md, "## Holdings")
	assert.NotContains(t, md, "## Asset Allocation")
	assert.NotContains(t, md, "## Performance")
}
