package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"US grouping", "1,234.56", "1234.56"},
		{"European grouping", "1.234,56", "1234.56"},
		{"Swiss apostrophes", "1'234'567.89", "1234567.89"},
		{"plain integer", "1500", "1500"},
		{"single comma decimal", "3,75", "3.75"},
		{"single dot decimal", "12.5", "12.5"},
		{"comma grouping only", "1,234", "1234"},
		{"repeated grouping", "1,234,567", "1234567"},
		{"fraction with leading zero", "0,500", "0.5"},
		{"dollar prefix", "$2,500.00", "2500"},
		{"currency code prefix", "CHF 2'500'000", "2500000"},
		{"euro symbol", "€1.250,00", "1250"},
		{"parentheses negative", "(1,000)", "-1000"},
		{"explicit minus", "-42.5", "-42.5"},
		{"explicit plus", "+42.5", "42.5"},
		{"non-breaking space grouping", "1 234,56", "1234.56"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12,34.56,7"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4.5%", "4.5"},
		{"+4.5%", "4.5"},
		{"-1,2 %", "-1.2"},
		{"12%", "12"},
		{"45.2", "45.2"},
	}
	for _, tt := range tests {
		got, err := ParsePercent(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got.String(), "input %q", tt.in)
	}
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Total value: USD 1,500,000", "USD"},
		{"Valeur totale: 1.250.000 €", "EUR"},
		{"CHF 2'500'000", "CHF"},
		{"$1,000", "USD"},
		{"US$ 500", "USD"},
		{"no currency here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectCurrency(tt.in), "input %q", tt.in)
	}
}

func TestFindAmounts(t *testing.T) {
	amounts := findAmounts("bought 150 units at 42.50 for 6,375.00 in 2024")
	require.Len(t, amounts, 3)
	assert.Equal(t, "150", amounts[0].String())
	assert.Equal(t, "42.5", amounts[1].String())
	assert.Equal(t, "6375", amounts[2].String())
}
