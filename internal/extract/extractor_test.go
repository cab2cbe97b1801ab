package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findoc-io/findoc-analyzer/constants"
)

const statementText = `Global Growth Portfolio Valuation
Client: Dr. A. Keller
Portfolio Manager: Meridian Wealth AG
Valuation Date: 31.12.2024
Total Portfolio Value: CHF 2'450'000.00
`

func statementDoc() Document {
	return Document{
		Text: statementText,
		Tables: []Table{
			{
				Title:   "Asset Allocation",
				Headers: []string{"Asset Class", "Market Value", "%"},
				Rows: [][]string{
					{"Equities", "1'225'000", "50.0%"},
					{"Fixed Income", "735'000", "30.0%"},
					{"Cash", "490'000", "20.0%"},
					{"Total", "2'450'000", "100.0%"},
				},
			},
			{
				Title:   "Holdings",
				Headers: []string{"ISIN", "Security", "Quantity", "Price", "Market Value", "Ccy"},
				Rows: [][]string{
					{"US0378331005", "Apple Inc", "500", "190.50", "95'250.00", "USD"},
					{"CH0012032048", "Roche Holding AG", "300", "250.00", "75'000.00", "CHF"},
					{"XS0104440986", "EIB 4.875% Notes 2030", "100'000", "101.25", "101'250.00", "EUR"},
					{"Total", "", "", "", "271'500.00", ""},
				},
			},
			{
				Title:   "Performance",
				Headers: []string{"YTD", "1 Year", "3 Years", "5 Years", "Since Inception"},
				Rows: [][]string{
					{"+4.5%", "-2.1%", "12.3%", "30.0%", "45.7%"},
				},
			},
		},
	}
}

func TestEngineExtract(t *testing.T) {
	p := NewEngine(nil).Extract(statementDoc())

	// metadata
	assert.Contains(t, p.Title, "Portfolio Valuation")
	assert.Equal(t, "Dr. A. Keller", p.Owner)
	assert.Equal(t, "Meridian Wealth AG", p.Manager)
	require.NotNil(t, p.ValuationDate)
	assert.Equal(t, "2024-12-31", p.ValuationDate.Format("2006-01-02"))
	require.NotNil(t, p.TotalValue)
	assert.Equal(t, "2450000", p.TotalValue.String())
	assert.Equal(t, "CHF", p.Currency)

	// securities
	require.Len(t, p.Securities, 3)
	apple := p.Securities[0]
	assert.Equal(t, "US0378331005", apple.ISIN)
	assert.Equal(t, "Apple Inc", apple.Name)
	assert.Equal(t, string(constants.Equity), apple.InstrumentType)
	require.NotNil(t, apple.Quantity)
	assert.Equal(t, "500", apple.Quantity.String())
	assert.Equal(t, "USD", apple.Currency)

	bond := p.Securities[2]
	assert.Equal(t, "XS0104440986", bond.ISIN)
	assert.Equal(t, string(constants.Bond), bond.InstrumentType)

	// allocations (subtotal row dropped)
	require.Len(t, p.Allocations, 3)
	assert.Equal(t, string(constants.AssetEquity), p.Allocations[0].AssetClass)
	require.NotNil(t, p.Allocations[0].Percent)
	assert.Equal(t, "50", p.Allocations[0].Percent.String())

	// performance, wide layout
	require.NotNil(t, p.Performance)
	require.NotNil(t, p.Performance.YTD)
	assert.Equal(t, "4.5", p.Performance.YTD.String())
	require.NotNil(t, p.Performance.OneYear)
	assert.Equal(t, "-2.1", p.Performance.OneYear.String())
	require.NotNil(t, p.Performance.SinceInception)
	assert.Equal(t, "45.7", p.Performance.SinceInception.String())

	assert.Greater(t, p.Confidence.Overall, float32(0.5))
}

func TestEngineExtractTextFallbacks(t *testing.T) {
	doc := Document{
		Text: `Investment Report
As of 2024-06-30
Total Value: USD 350,000

Positions:
Apple Inc US0378331005 150 28,575.00
Vodafone Group GB00BH4HKS39 10,000 9,800.00

Equities 250,000 71.4%
Cash 100,000 28.6%

YTD: +3.2%
1 Year: 8.5%
`,
	}
	p := NewEngine(nil).Extract(doc)

	require.NotNil(t, p.ValuationDate)
	assert.Equal(t, "2024-06-30", p.ValuationDate.Format("2006-01-02"))
	assert.Equal(t, "USD", p.Currency)

	require.Len(t, p.Securities, 2)
	assert.Equal(t, "US0378331005", p.Securities[0].ISIN)
	assert.Equal(t, "Apple Inc", p.Securities[0].Name)
	require.NotNil(t, p.Securities[0].Value)
	assert.Equal(t, "28575", p.Securities[0].Value.String())
	assert.Equal(t, "GB00BH4HKS39", p.Securities[1].ISIN)

	require.Len(t, p.Allocations, 2)
	assert.Equal(t, string(constants.AssetEquity), p.Allocations[0].AssetClass)
	assert.Equal(t, string(constants.AssetCash), p.Allocations[1].AssetClass)

	require.NotNil(t, p.Performance)
	require.NotNil(t, p.Performance.YTD)
	assert.Equal(t, "3.2", p.Performance.YTD.String())
	require.NotNil(t, p.Performance.OneYear)
	assert.Equal(t, "8.5", p.Performance.OneYear.String())

	// fallback paths cap section confidence
	assert.LessOrEqual(t, p.Confidence.Securities, float32(0.5))
}

func TestEngineExtractEmptyDocument(t *testing.T) {
	p := NewEngine(nil).Extract(Document{Text: "nothing useful here"})
	assert.Empty(t, p.Securities)
	assert.Empty(t, p.Allocations)
	assert.Nil(t, p.Performance)
	assert.Equal(t, float32(0), p.Confidence.Securities)
}

func TestClassifyInstrument(t *testing.T) {
	tests := []struct {
		name   string
		stated string
		want   constants.InstrumentType
	}{
		{"Apple Inc Shares", "", constants.Equity},
		{"iShares Core MSCI World", "", constants.ETF},
		{"Global Bond Fund", "", constants.Fund},
		{"4.375% Treasury Gilt 2030", "", constants.Bond},
		{"EIB 4.875% Notes 2030", "", constants.Bond},
		{"Barrier Reverse Convertible on SMI", "", constants.Structured},
		{"USD Call Account", "", constants.Cash},
		{"Something Opaque", "Fixed Income", constants.Bond},
		{"Something Opaque", "", constants.Unclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.stated, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyInstrument(tt.name, tt.stated))
		})
	}
}
